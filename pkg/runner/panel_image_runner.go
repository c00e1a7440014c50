package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
)

// PanelGenerator は一括生成と単発の再生成の両方を担うジェネレータです。
type PanelGenerator interface {
	generator.PanelsImageGenerator
	generator.PanelImageGenerator
}

// ComicPanelImageRunner は、台本ファイルの内容に対してパネル画像を生成し、結果を反映します。
type ComicPanelImageRunner struct {
	cfg       config.Config
	generator PanelGenerator
}

// NewComicPanelImageRunner は、依存関係を注入して初期化します。
func NewComicPanelImageRunner(cfg config.Config, gen PanelGenerator) *ComicPanelImageRunner {
	return &ComicPanelImageRunner{
		cfg:       cfg,
		generator: gen,
	}
}

// Run は未生成のパネルを順番に生成し、Ready イベントを受け取るたびに comic へ反映します。
// onReady は反映直後に呼ばれ、途中経過の保存などに使えます。
func (r *ComicPanelImageRunner) Run(ctx context.Context, comic *domain.Comic, onReady func(*domain.Comic) error) (generator.Result, error) {
	slog.InfoContext(ctx, "Starting panel image generation", "pending", domain.Strips(comic.Strips).PendingCount())

	var applyErr error
	res, err := r.generator.GenerateAll(ctx, comic.Strips, r.options(comic), r.applier(comic, onReady, &applyErr))
	if applyErr != nil {
		return res, applyErr
	}
	if err != nil {
		return res, fmt.Errorf("パネル画像の一括生成に失敗しました: %w", err)
	}
	return res, nil
}

// RunPanel は指定された1パネルだけを生成し直します。
func (r *ComicPanelImageRunner) RunPanel(ctx context.Context, comic *domain.Comic, strip, panel int, onReady func(*domain.Comic) error) error {
	var applyErr error
	err := r.generator.GenerateOne(ctx, comic.Strips, strip, panel, r.options(comic), r.applier(comic, onReady, &applyErr))
	if applyErr != nil {
		return applyErr
	}
	if err != nil {
		return fmt.Errorf("パネル画像の再生成に失敗しました: %w", err)
	}
	return nil
}

func (r *ComicPanelImageRunner) options(comic *domain.Comic) generator.Options {
	style := comic.Style
	if style == "" {
		style = r.cfg.StyleKey
	}
	return generator.Options{
		StyleKey: style,
		Delay:    r.cfg.ImageDelay,
	}
}

// applier は Ready イベントを該当パネルにだけ反映するシンクを返します。
func (r *ComicPanelImageRunner) applier(comic *domain.Comic, onReady func(*domain.Comic) error, applyErr *error) generator.EventSink {
	return func(ev generator.Event) {
		if ev.Kind != generator.EventReady || *applyErr != nil {
			return
		}
		if err := domain.Strips(comic.Strips).SetImage(ev.Strip, ev.Panel, ev.ImageURL); err != nil {
			*applyErr = err
			return
		}
		if onReady != nil {
			if err := onReady(comic); err != nil {
				*applyErr = fmt.Errorf("途中経過の保存に失敗しました: %w", err)
			}
		}
	}
}
