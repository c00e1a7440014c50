package runner

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/publisher"
)

// DefaultPublisherRunner は pkg/publisher を利用した標準実装です。
type DefaultPublisherRunner struct {
	cfg       config.Config
	publisher *publisher.ComicPublisher
}

func NewDefaultPublisherRunner(cfg config.Config, pub *publisher.ComicPublisher) *DefaultPublisherRunner {
	return &DefaultPublisherRunner{
		cfg:       cfg,
		publisher: pub,
	}
}

func (pr *DefaultPublisherRunner) Run(ctx context.Context, comic *domain.Comic, outputDir string) (publisher.PublishResult, error) {
	opts := publisher.Options{
		OutputDir: outputDir,
	}

	return pr.publisher.Publish(ctx, comic, opts)
}

// BuildMarkdown は保存処理を行わず、Markdown 文字列のみを生成して返却します。
// 画像パスを渡さないため、各パネルは data URL をそのまま参照します。
func (pr *DefaultPublisherRunner) BuildMarkdown(comic *domain.Comic) string {
	return pr.publisher.BuildMarkdown(comic, nil)
}

// RenderPNG はストリップ一覧の PNG スナップショットを返します。
func (pr *DefaultPublisherRunner) RenderPNG(strips domain.Strips) ([]byte, error) {
	return pr.publisher.RenderPNG(strips)
}
