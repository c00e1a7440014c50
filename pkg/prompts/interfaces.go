package prompts

import "github.com/shouni/go-comic-kit/pkg/domain"

// ScriptPrompt は、台本生成プロンプトを構築する契約です。
type ScriptPrompt interface {
	// Build は、指定されたモードとデータに基づいてプロンプト文字列を生成します。
	Build(mode domain.ScriptMode, data TemplateData) (string, error)
}

// ImagePrompt は、パネル画像のプロンプトを構築する契約です。
type ImagePrompt interface {
	BuildPanel(panel domain.Panel) string
	Style() domain.ComicStyle
}
