package prompts

import (
	_ "embed"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// TemplateData は台本プロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	InputText string
}

var (
	//go:embed moments.md
	MomentsPrompt string
	//go:embed sentence.md
	SentencePrompt string
	//go:embed dialogue.md
	DialoguePrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップです。
var allTemplates = map[domain.ScriptMode]string{
	domain.ModeMoments:  MomentsPrompt,
	domain.ModeSentence: SentencePrompt,
	domain.ModeDialogue: DialoguePrompt,
}
