package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/adapters"
	"github.com/shouni/go-comic-kit/pkg/apierror"
	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/parser"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

// ErrNoActivePassages は本文を持つパッセージが1つもない場合のエラーです。
var ErrNoActivePassages = errors.New("本文が入力されたパッセージがありません")

// ComicScriptRunner はパッセージ群から台本を生成します。
type ComicScriptRunner struct {
	cfg           config.Config
	promptBuilder prompts.ScriptPrompt
	textClient    adapters.TextAdapter
	parser        parser.Parser
}

// NewComicScriptRunner は依存関係を注入して初期化します。
func NewComicScriptRunner(
	cfg config.Config,
	pb prompts.ScriptPrompt,
	tc adapters.TextAdapter,
	p parser.Parser,
) *ComicScriptRunner {
	return &ComicScriptRunner{
		cfg:           cfg,
		promptBuilder: pb,
		textClient:    tc,
		parser:        p,
	}
}

// Run は本文のあるパッセージを連結し、1回のテキスト生成で全ストリップの台本を作ります。
// 失敗は apierror.Error に分類して返します。台本生成は再試行しません。
func (sr *ComicScriptRunner) Run(ctx context.Context, passages domain.Passages, mode domain.ScriptMode) (domain.Strips, error) {
	active := passages.ActivePassages()
	if len(active) == 0 {
		return nil, ErrNoActivePassages
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidScriptMode, mode)
	}

	// TemplateData 構造体を使用して InputText を流し込みます
	finalPrompt, err := sr.promptBuilder.Build(mode, prompts.TemplateData{InputText: active.CombinedText()})
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	slog.InfoContext(ctx, "ScriptRunner: Calling Gemini API",
		"model", sr.cfg.GeminiModel,
		"mode", mode,
		"passages", len(active))
	raw, err := sr.textClient.GenerateText(ctx, finalPrompt)
	if err != nil {
		return nil, apierror.Classify(apierror.OpScript, err)
	}

	lines, err := sr.parser.Parse(raw, mode)
	if err != nil {
		return nil, apierror.Classify(apierror.OpScript, err)
	}

	if len(lines) != len(active) {
		slog.WarnContext(ctx, "ストリップ数がパッセージ数と一致しません",
			"strips", len(lines),
			"passages", len(active))
	}

	strips := domain.NewStrips(lines, active.Titles())
	slog.InfoContext(ctx, "ScriptRunner: Script generated",
		"strips", len(strips),
		"panels", domain.Strips(strips).PanelCount())
	return strips, nil
}
