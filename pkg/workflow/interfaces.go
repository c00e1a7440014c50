package workflow

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/workspace"
)

// Workflow は、コミック生成ワークフローの各工程を担当する Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildScriptRunner() (ScriptRunner, error)
	BuildPanelImageRunner() (PanelImageRunner, error)
	BuildPublishRunner() (PublishRunner, error)
	BuildWorkspace(opts ...workspace.Option) (*workspace.Workspace, error)
}

// ScriptRunner は、パッセージ群を1回のテキスト生成でストリップの台本に変換する責務を持ちます。
type ScriptRunner interface {
	Run(ctx context.Context, passages domain.Passages, mode domain.ScriptMode) (domain.Strips, error)
}

// PanelImageRunner は、台本の未生成パネルを順番に生成し、結果を台本へ反映する責務を持ちます。
type PanelImageRunner interface {
	Run(ctx context.Context, comic *domain.Comic, onReady func(*domain.Comic) error) (generator.Result, error)
	RunPanel(ctx context.Context, comic *domain.Comic, strip, panel int, onReady func(*domain.Comic) error) error
}

// PublishRunner は、台本と画像を Markdown や PNG として出力する責務を持ちます。
type PublishRunner interface {
	Run(ctx context.Context, comic *domain.Comic, outputDir string) (publisher.PublishResult, error)
	BuildMarkdown(comic *domain.Comic) string
	RenderPNG(strips domain.Strips) ([]byte, error)
}
