package adapters

import (
	"context"

	"github.com/shouni/gemini-image-kit/ports"
	"google.golang.org/genai"
)

// ImageAdapter は個別パネル（1枚）の画像生成を担います。
type ImageAdapter interface {
	GeneratePanel(ctx context.Context, req ports.ImagePanelRequest) (*ports.ImageResponse, error)
}

// TextAdapter は単発のテキスト生成を担います。
type TextAdapter interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImagesModel は genai の Models が満たす画像生成メソッドです。
type ImagesModel interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}
