package prompts

import (
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// ImagePromptBuilder は、パネルの画像プロンプトに画風のサフィックスを付与します。
type ImagePromptBuilder struct {
	style domain.ComicStyle
}

// NewImagePromptBuilder は指定された画風キーでビルダーを生成します。不明なキーはデフォルトの画風になります。
func NewImagePromptBuilder(styleKey string) *ImagePromptBuilder {
	style, _ := domain.LookupStyle(styleKey)
	return &ImagePromptBuilder{style: style}
}

// Style は適用される画風を返します。
func (pb *ImagePromptBuilder) Style() domain.ComicStyle {
	return pb.style
}

// BuildPanel は "<画像プロンプト>, <画風サフィックス>" を返します。
func (pb *ImagePromptBuilder) BuildPanel(panel domain.Panel) string {
	return ComposeImagePrompt(panel.ImagePrompt, pb.style.Suffix)
}

// ComposeImagePrompt はプロンプトとサフィックスを ", " で連結します。
func ComposeImagePrompt(prompt, suffix string) string {
	prompt = strings.TrimSpace(prompt)
	if suffix == "" {
		return prompt
	}
	return prompt + ", " + suffix
}
