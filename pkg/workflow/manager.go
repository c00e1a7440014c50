package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/go-comic-kit/pkg/adapters"
	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/parser"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/runner"
	"github.com/shouni/go-comic-kit/pkg/workspace"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。
// TextAdapter と ImageAdapter が nil の場合は、必要になった時点で Gemini API のクライアントを作成します。
type ManagerArgs struct {
	Config           config.Config
	Writer           publisher.OutputWriter
	ScriptPrompt     prompts.ScriptPrompt
	TextAdapter      adapters.TextAdapter
	ImageAdapter     adapters.ImageAdapter
	FontFile         string // PNG 出力の本文フォント。空なら Go フォント
	GeneratorOptions []generator.Option
}

// Manager は、ワークフローの各工程を担う Runner 群を構築・管理します。
// モデルのクライアントは遅延初期化されるため、パブリッシュだけなら API キーは不要です。
type Manager struct {
	ctx          context.Context
	cfg          config.Config
	writer       publisher.OutputWriter
	scriptPrompt prompts.ScriptPrompt
	genOpts      []generator.Option
	snapshot     *publisher.SnapshotCache

	mu           sync.Mutex
	textAdapter  adapters.TextAdapter
	imageAdapter adapters.ImageAdapter
	panelGen     *generator.PanelGenerator
}

// New は、設定を基に新しい Manager を初期化します。
func New(ctx context.Context, args ManagerArgs) (*Manager, error) {
	if err := args.Config.Validate(); err != nil {
		return nil, fmt.Errorf("設定が不正です: %w", err)
	}
	writer := args.Writer
	if writer == nil {
		writer = publisher.LocalWriter{}
	}

	sPrompt, err := initializeScriptPrompt(args.ScriptPrompt)
	if err != nil {
		return nil, err
	}

	renderer, err := publisher.NewSnapshotRenderer(publisher.WithFontFile(args.FontFile))
	if err != nil {
		return nil, fmt.Errorf("SnapshotRenderer の初期化に失敗しました: %w", err)
	}

	return &Manager{
		ctx:          ctx,
		cfg:          args.Config,
		writer:       writer,
		scriptPrompt: sPrompt,
		genOpts:      args.GeneratorOptions,
		snapshot:     publisher.NewSnapshotCache(renderer, publisher.DefaultSnapshotTTL),
		textAdapter:  args.TextAdapter,
		imageAdapter: args.ImageAdapter,
	}, nil
}

// BuildScriptRunner は、台本生成を担当する Runner を作成します。
func (m *Manager) BuildScriptRunner() (ScriptRunner, error) {
	ta, err := m.text()
	if err != nil {
		return nil, err
	}
	return runner.NewComicScriptRunner(m.cfg, m.scriptPrompt, ta, parser.NewScriptParser()), nil
}

// BuildPanelImageRunner は、パネル画像生成を担当する Runner を作成します。
func (m *Manager) BuildPanelImageRunner() (PanelImageRunner, error) {
	pg, err := m.panelGenerator()
	if err != nil {
		return nil, err
	}
	return runner.NewComicPanelImageRunner(m.cfg, pg), nil
}

// BuildPublishRunner は、成果物のパブリッシュを担当する Runner を作成します。
func (m *Manager) BuildPublishRunner() (PublishRunner, error) {
	pub := publisher.NewComicPublisher(m.writer, m.snapshot)
	return runner.NewDefaultPublisherRunner(m.cfg, pub), nil
}

// BuildWorkspace は、台本生成とパネル生成を束ねた対話用の Workspace を作成します。
func (m *Manager) BuildWorkspace(opts ...workspace.Option) (*workspace.Workspace, error) {
	sr, err := m.BuildScriptRunner()
	if err != nil {
		return nil, err
	}
	pg, err := m.panelGenerator()
	if err != nil {
		return nil, err
	}
	base := []workspace.Option{
		workspace.WithSettings(m.cfg.ScriptMode, m.cfg.StyleKey, m.cfg.ImageDelay),
	}
	return workspace.New(sr, pg, append(base, opts...)...)
}

// text はテキストアダプタを返します。初回呼び出し時に作成します。
func (m *Manager) text() (adapters.TextAdapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.textAdapter != nil {
		return m.textAdapter, nil
	}
	ta, err := initializeTextAdapter(m.ctx, m.cfg, nil)
	if err != nil {
		return nil, err
	}
	m.textAdapter = ta
	return ta, nil
}

// panelGenerator は PanelGenerator を返します。初回呼び出し時に画像アダプタと一緒に作成します。
func (m *Manager) panelGenerator() (*generator.PanelGenerator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panelGen != nil {
		return m.panelGen, nil
	}
	ia, err := initializeImageAdapter(m.ctx, m.cfg, m.imageAdapter)
	if err != nil {
		return nil, err
	}
	pg, err := generator.NewPanelGenerator(ia, m.cfg, m.genOpts...)
	if err != nil {
		return nil, fmt.Errorf("PanelGenerator の初期化に失敗しました: %w", err)
	}
	m.imageAdapter = ia
	m.panelGen = pg
	return pg, nil
}

// initializeTextAdapter は台本生成用のテキストアダプタを初期化します。
// 引数として既存のアダプタが渡された場合はそれを返します。
func initializeTextAdapter(ctx context.Context, cfg config.Config, ta adapters.TextAdapter) (adapters.TextAdapter, error) {
	if ta != nil {
		return ta, nil
	}
	client, err := adapters.NewGeminiTextClient(ctx, cfg.GeminiAPIKey, cfg.Temperature)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return adapters.NewGeminiTextAdapter(client, cfg.GeminiModel), nil
}

// initializeImageAdapter は Imagen 用のアダプタを初期化します。
func initializeImageAdapter(ctx context.Context, cfg config.Config, ia adapters.ImageAdapter) (adapters.ImageAdapter, error) {
	if ia != nil {
		return ia, nil
	}
	client, err := adapters.NewGenAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("画像生成クライアントの初期化に失敗しました: %w", err)
	}
	adapter, err := adapters.NewImagenAdapter(client.Models, cfg.ImageModel, cfg.ImageMimeType)
	if err != nil {
		return nil, fmt.Errorf("ImagenAdapter の初期化に失敗しました: %w", err)
	}
	return adapter, nil
}

// initializeScriptPrompt は ScriptPrompt ビルダーを初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializeScriptPrompt(scriptPrompt prompts.ScriptPrompt) (prompts.ScriptPrompt, error) {
	if scriptPrompt != nil {
		return scriptPrompt, nil
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}

	return pb, nil
}
