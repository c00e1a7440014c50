package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comic-kit/pkg/adapters"
	"github.com/shouni/go-comic-kit/pkg/apierror"
	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"

	"github.com/cenkalti/backoff/v4"
	"github.com/shouni/gemini-image-kit/ports"
)

// ErrEmptyImagePrompt は画像プロンプトが空のパネルを再生成しようとした場合のエラーです。
var ErrEmptyImagePrompt = errors.New("画像プロンプトが空のパネルは生成できません")

// Options は1回の生成実行ごとに変えられる設定です。
type Options struct {
	StyleKey string
	Delay    time.Duration // 2枚目以降のリクエスト前に待つ時間
}

// Result は一括生成の集計です。
type Result struct {
	Generated int
	Skipped   int
}

// PanelGenerator はパネル画像を1枚ずつ直列に生成します。
// 同時に発行するリクエストは常に1つです。
type PanelGenerator struct {
	adapter     adapters.ImageAdapter
	aspectRatio string
	retry       RetryPolicy
	wait        func(ctx context.Context, d time.Duration) error
	newTimer    func() backoff.Timer
}

// Option は PanelGenerator の振る舞いを差し替えます。
type Option func(*PanelGenerator)

// WithWaitFunc はリクエスト間の待機処理を差し替えます。
func WithWaitFunc(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(pg *PanelGenerator) {
		pg.wait = fn
	}
}

// WithRetryTimer は再試行の待機に使うタイマーを差し替えます。
func WithRetryTimer(fn func() backoff.Timer) Option {
	return func(pg *PanelGenerator) {
		pg.newTimer = fn
	}
}

// NewPanelGenerator は PanelGenerator の新しいインスタンスを初期化します。
func NewPanelGenerator(adapter adapters.ImageAdapter, cfg config.Config, opts ...Option) (*PanelGenerator, error) {
	if adapter == nil {
		return nil, fmt.Errorf("ImageAdapter は必須です")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pg := &PanelGenerator{
		adapter:     adapter,
		aspectRatio: cfg.AspectRatio,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
		},
		wait: sleepContext,
	}
	for _, opt := range opts {
		opt(pg)
	}
	return pg, nil
}

// GenerateAll はストリップ順、パネル順に走査し、画像のないパネルだけを生成します。
// 最初のリクエスト以外は直前に opts.Delay だけ待ちます。
// 再試行を使い切ったパネルが出た時点で走査を打ち切り、そのエラーを返します。
// それまでに生成済みのパネルは EventReady として通知済みです。
func (pg *PanelGenerator) GenerateAll(ctx context.Context, strips domain.Strips, opts Options, sink EventSink) (Result, error) {
	if err := config.ValidateDelay(opts.Delay); err != nil {
		return Result{}, err
	}
	pb := prompts.NewImagePromptBuilder(opts.StyleKey)

	var res Result
	requested := false
	slog.InfoContext(ctx, "Starting sequential panel generation",
		"strips", len(strips),
		"pending", strips.PendingCount(),
		"style", pb.Style().Key,
		"delay", opts.Delay)

	for si, strip := range strips {
		for pi, panel := range strip.Panels {
			if panel.HasImage() {
				res.Skipped++
				continue
			}

			if requested {
				if err := pg.wait(ctx, opts.Delay); err != nil {
					return res, err
				}
			}
			requested = true

			if _, err := pg.generatePanel(ctx, pb, si, pi, panel, sink); err != nil {
				slog.ErrorContext(ctx, "Panel generation aborted the sequence",
					"strip", si+1, "panel", pi+1, "generated", res.Generated, "error", err)
				return res, err
			}
			res.Generated++
		}
	}

	slog.InfoContext(ctx, "Sequential panel generation completed", "generated", res.Generated, "skipped", res.Skipped)
	return res, nil
}

// GenerateOne は指定された1パネルを、既存の画像があっても生成し直します。
func (pg *PanelGenerator) GenerateOne(ctx context.Context, strips domain.Strips, strip, panel int, opts Options, sink EventSink) error {
	p, err := strips.Panel(strip, panel)
	if err != nil {
		return err
	}
	if p.ImagePrompt == "" {
		return ErrEmptyImagePrompt
	}

	pb := prompts.NewImagePromptBuilder(opts.StyleKey)
	_, err = pg.generatePanel(ctx, pb, strip, panel, *p, sink)
	return err
}

// generatePanel は1パネル分のリクエストを再試行付きで実行し、data URL を返します。
func (pg *PanelGenerator) generatePanel(ctx context.Context, pb prompts.ImagePrompt, si, pi int, panel domain.Panel, sink EventSink) (string, error) {
	logger := slog.With("strip", si+1, "panel", pi+1)
	req := ports.ImagePanelRequest{
		GenerationOptions: ports.GenerationOptions{
			Prompt:      pb.BuildPanel(panel),
			AspectRatio: pg.aspectRatio,
		},
	}

	attempt := 0
	var imageURL string
	operation := func() error {
		attempt++
		sink.emit(Event{Kind: EventRequesting, Strip: si, Panel: pi, Attempt: attempt})
		logger.InfoContext(ctx, "Requesting panel image", "attempt", attempt)

		startTime := time.Now()
		resp, err := pg.adapter.GeneratePanel(ctx, req)
		if err != nil {
			classified := apierror.Classify(apierror.OpImage, err)
			if !classified.Retryable() {
				return backoff.Permanent(classified)
			}
			return classified
		}

		imageURL = domain.EncodeDataURL(resp.MimeType, resp.Data)
		logger.InfoContext(ctx, "Panel generation completed", "duration", time.Since(startTime).Round(time.Millisecond))
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.WarnContext(ctx, "Panel generation failed, retrying", "attempt", attempt, "wait", wait, "error", err)
		sink.emit(Event{
			Kind:    EventRetrying,
			Strip:   si,
			Panel:   pi,
			Attempt: attempt,
			Wait:    wait,
			Message: apierror.UserMessage(err),
			Err:     err,
		})
	}

	var timer backoff.Timer
	if pg.newTimer != nil {
		timer = pg.newTimer()
	}

	if err := backoff.RetryNotifyWithTimer(operation, pg.retry.backOff(ctx), notify, timer); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		classified := apierror.Classify(apierror.OpImage, err)
		logger.ErrorContext(ctx, "Panel generation failed", "attempts", attempt, "kind", classified.Kind, "error", err)
		sink.emit(Event{
			Kind:    EventFailed,
			Strip:   si,
			Panel:   pi,
			Attempt: attempt,
			Message: classified.UserMessage(),
			Err:     classified,
		})
		return "", fmt.Errorf("strip %d panel %d: %w", si+1, pi+1, classified)
	}

	sink.emit(Event{Kind: EventReady, Strip: si, Panel: pi, Attempt: attempt, ImageURL: imageURL})
	return imageURL, nil
}
