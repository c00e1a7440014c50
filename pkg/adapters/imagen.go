package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-image-kit/ports"
	"google.golang.org/genai"
)

// ErrNoImages は画像生成 API が空の配列を返した場合のエラーです。
var ErrNoImages = errors.New("API から画像が返されませんでした")

// ImagenAdapter は Imagen モデルを使ってパネル画像を1枚生成します。
type ImagenAdapter struct {
	models   ImagesModel
	model    string
	mimeType string
}

// NewImagenAdapter は ImagenAdapter を初期化します。
func NewImagenAdapter(models ImagesModel, model, mimeType string) (*ImagenAdapter, error) {
	if models == nil {
		return nil, fmt.Errorf("ImagesModel は必須です")
	}
	if model == "" {
		return nil, fmt.Errorf("画像モデル名が指定されていません")
	}
	return &ImagenAdapter{
		models:   models,
		model:    model,
		mimeType: mimeType,
	}, nil
}

// NewGenAIClient は Gemini API バックエンドの genai クライアントを作成します。
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}

// GeneratePanel はプロンプトから画像を1枚だけ生成します。
func (a *ImagenAdapter) GeneratePanel(ctx context.Context, req ports.ImagePanelRequest) (*ports.ImageResponse, error) {
	cfg := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: a.mimeType,
		AspectRatio:    req.AspectRatio,
		NegativePrompt: req.NegativePrompt,
	}
	if req.Seed != nil {
		seed := int32(*req.Seed)
		cfg.Seed = &seed
	}

	resp, err := a.models.GenerateImages(ctx, a.model, req.Prompt, cfg)
	if err != nil {
		return nil, fmt.Errorf("画像生成 API の呼び出しに失敗しました: %w", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, ErrNoImages
	}

	img := resp.GeneratedImages[0]
	if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
		if img != nil && img.RAIFilteredReason != "" {
			slog.WarnContext(ctx, "画像がフィルタされました", "reason", img.RAIFilteredReason)
		}
		return nil, ErrNoImages
	}

	mimeType := img.Image.MIMEType
	if mimeType == "" {
		mimeType = a.mimeType
	}

	out := &ports.ImageResponse{
		Data:     img.Image.ImageBytes,
		MimeType: mimeType,
	}
	if req.Seed != nil {
		out.UsedSeed = *req.Seed
	}
	return out, nil
}
