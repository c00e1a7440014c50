package adapters

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

// GeminiTextAdapter は go-gemini-client を使って台本用のテキストを生成します。
type GeminiTextAdapter struct {
	client gemini.ContentGenerator
	model  string
}

// NewGeminiTextClient は gemini クライアントを初期化します。
// クライアント内部の再試行回数は 0 にできず、既定の1回が適用されます。
func NewGeminiTextClient(ctx context.Context, apiKey string, temperature float32) (gemini.GenerativeModel, error) {
	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(temperature),
	}
	aiClient, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return aiClient, nil
}

// NewGeminiTextAdapter は GeminiTextAdapter を初期化します。
func NewGeminiTextAdapter(client gemini.ContentGenerator, model string) *GeminiTextAdapter {
	return &GeminiTextAdapter{client: client, model: model}
}

// GenerateText はプロンプトを送信し、応答テキストをトリムして返します。
func (a *GeminiTextAdapter) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.GenerateContent(ctx, a.model, prompt)
	if err != nil {
		return "", fmt.Errorf("テキスト生成 API の呼び出しに失敗しました: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Text), nil
}
