package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/go-comic-kit/pkg/apierror"
	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrBusy は別の生成処理が実行中の場合のエラーです。
	ErrBusy = errors.New("別の生成処理が実行中です")
	// ErrPassageNotFound は指定された ID のパッセージが存在しない場合のエラーです。
	ErrPassageNotFound = errors.New("パッセージが見つかりません")
	// ErrLastPassage は最後の1件を削除しようとした場合のエラーです。
	ErrLastPassage = errors.New("最後のパッセージは削除できません")
	// ErrPresetNotFound は未知のプリセットキーを指定した場合のエラーです。
	ErrPresetNotFound = errors.New("プリセットが見つかりません")
	// ErrNoStrips は台本が未生成のまま画像生成を始めようとした場合のエラーです。
	ErrNoStrips = errors.New("先に台本を生成してください")
)

// ScriptRunner はパッセージから台本を生成します。
type ScriptRunner interface {
	Run(ctx context.Context, passages domain.Passages, mode domain.ScriptMode) (domain.Strips, error)
}

// ImageGenerator はパネル画像の一括生成と単発の再生成を担います。
type ImageGenerator interface {
	generator.PanelsImageGenerator
	generator.PanelImageGenerator
}

// Notifier は状態の変化を外部（WebSocket など）へ伝えます。
type Notifier func(topic string, payload any)

// 通知のトピック名です。
const (
	TopicPanel          = "panel"
	TopicScriptStarted  = "script_started"
	TopicScriptReady    = "script_ready"
	TopicScriptFailed   = "script_failed"
	TopicImagesStarted  = "images_started"
	TopicImagesFinished = "images_finished"
	TopicImagesFailed   = "images_failed"
)

// State は Snapshot が返す、ある時点のワークスペースの写しです。
type State struct {
	Passages     domain.Passages   `json:"passages"`
	Strips       domain.Strips     `json:"strips"`
	Mode         domain.ScriptMode `json:"mode"`
	Style        string            `json:"style"`
	DelaySeconds float64           `json:"delay_seconds"`
	Busy         bool              `json:"busy"`
	Operation    string            `json:"operation,omitempty"`
	LastError    string            `json:"last_error,omitempty"`
}

// Workspace はパッセージ、生成済みストリップ、設定を1人のユーザー分だけ保持します。
// 台本生成・一括生成・単発生成は同時に1つしか実行できません。
// 生成中のパネル画像はイベントとして届き、ここで該当パネルにだけ反映されます。
type Workspace struct {
	mu       sync.Mutex
	busy     *semaphore.Weighted
	wg       sync.WaitGroup
	script   ScriptRunner
	images   ImageGenerator
	catalog  domain.PresetCatalog
	notify   Notifier
	passages domain.Passages
	strips   domain.Strips
	mode     domain.ScriptMode
	style    string
	delay    time.Duration
	op       string
	lastErr  string
}

// Option は Workspace の初期設定を変更します。
type Option func(*Workspace)

// WithCatalog はプリセットの一覧を設定します。
func WithCatalog(catalog domain.PresetCatalog) Option {
	return func(w *Workspace) {
		w.catalog = catalog
	}
}

// WithNotifier は状態変化の通知先を設定します。
func WithNotifier(n Notifier) Option {
	return func(w *Workspace) {
		w.notify = n
	}
}

// WithSettings はモード、スタイル、生成間隔の初期値を設定します。
func WithSettings(mode domain.ScriptMode, style string, delay time.Duration) Option {
	return func(w *Workspace) {
		w.mode = mode
		w.style = style
		w.delay = delay
	}
}

// New は "Passage 1" を1件だけ持つ Workspace を作成します。
func New(script ScriptRunner, images ImageGenerator, opts ...Option) (*Workspace, error) {
	if script == nil {
		return nil, fmt.Errorf("ScriptRunner は必須です")
	}
	if images == nil {
		return nil, fmt.Errorf("ImageGenerator は必須です")
	}
	w := &Workspace{
		busy:     semaphore.NewWeighted(1),
		script:   script,
		images:   images,
		passages: domain.Passages{domain.NewPassage("Passage 1")},
		mode:     domain.DefaultScriptMode,
		style:    domain.DefaultStyleKey,
		delay:    config.DefaultImageDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	if !w.mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidScriptMode, w.mode)
	}
	if err := config.ValidateDelay(w.delay); err != nil {
		return nil, err
	}
	return w, nil
}

// Snapshot は現在の状態の複製を返します。
func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	passages := make(domain.Passages, len(w.passages))
	copy(passages, w.passages)
	return State{
		Passages:     passages,
		Strips:       w.strips.Clone(),
		Mode:         w.mode,
		Style:        w.style,
		DelaySeconds: w.delay.Seconds(),
		Busy:         w.op != "",
		Operation:    w.op,
		LastError:    w.lastErr,
	}
}

// Presets はプリセットの一覧を返します。
func (w *Workspace) Presets() []domain.Preset {
	return w.catalog.Presets
}

// Wait は StartXxx で開始した処理がすべて終わるまで待ちます。
func (w *Workspace) Wait() {
	w.wg.Wait()
}

// --- passages ---

// AddPassage は末尾に空のパッセージを追加します。
func (w *Workspace) AddPassage() domain.Passage {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := domain.NewPassage(fmt.Sprintf("Passage %d", len(w.passages)+1))
	w.passages = append(w.passages, p)
	return p
}

// RemovePassage は指定のパッセージを削除します。最後の1件は削除できません。
func (w *Workspace) RemovePassage(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPassageNotFound, id)
	}
	if len(w.passages) <= 1 {
		return ErrLastPassage
	}
	w.passages = append(w.passages[:i:i], w.passages[i+1:]...)
	return nil
}

// UpdatePassageTitle はタイトルを更新します。
func (w *Workspace) UpdatePassageTitle(id, title string) (domain.Passage, error) {
	return w.updatePassage(id, func(p *domain.Passage) error {
		p.SetTitle(title)
		return nil
	})
}

// UpdatePassageText は本文を更新します。
func (w *Workspace) UpdatePassageText(id, text string) (domain.Passage, error) {
	return w.updatePassage(id, func(p *domain.Passage) error {
		p.SetText(text)
		return nil
	})
}

// SelectPreset はプリセットを適用します。"custom" はタイトルと本文を空にします。
func (w *Workspace) SelectPreset(id, key string) (domain.Passage, error) {
	return w.updatePassage(id, func(p *domain.Passage) error {
		preset, ok := w.catalog.Find(key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrPresetNotFound, key)
		}
		p.ApplyPreset(preset)
		return nil
	})
}

func (w *Workspace) updatePassage(id string, fn func(*domain.Passage) error) (domain.Passage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := w.indexOf(id)
	if i < 0 {
		return domain.Passage{}, fmt.Errorf("%w: %s", ErrPassageNotFound, id)
	}
	if err := fn(&w.passages[i]); err != nil {
		return domain.Passage{}, err
	}
	return w.passages[i], nil
}

func (w *Workspace) indexOf(id string) int {
	for i, p := range w.passages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// --- settings ---

// SetMode は台本モードを変更します。生成済みのストリップには影響しません。
func (w *Workspace) SetMode(mode domain.ScriptMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidScriptMode, mode)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mode = mode
	return nil
}

// SetStyle は画像スタイルを変更します。未知のキーはデフォルトのスタイルになります。
func (w *Workspace) SetStyle(key string) string {
	style, _ := domain.LookupStyle(key)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.style = style.Key
	return w.style
}

// SetDelay はパネル生成の間隔を変更します。
func (w *Workspace) SetDelay(d time.Duration) error {
	if err := config.ValidateDelay(d); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delay = d
	return nil
}

// --- panel edits ---

// EditCaption はキャプションを書き換えます。
func (w *Workspace) EditCaption(strip, panel int, caption string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.strips.SetCaption(strip, panel, caption)
}

// EditDialogue は会話のセリフを書き換えます。nil の側は変更しません。
func (w *Workspace) EditDialogue(strip, panel int, left, right *string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.strips.SetDialogue(strip, panel, left, right)
}

// --- generation ---

// GenerateScript は本文のあるパッセージから台本を生成し、ストリップを置き換えます。
// 開始時に既存のストリップとエラーは破棄されます。
func (w *Workspace) GenerateScript(ctx context.Context) error {
	release, err := w.begin("script")
	if err != nil {
		return err
	}
	defer release()
	return w.runScript(ctx)
}

// StartScript は GenerateScript をバックグラウンドで開始します。
// 実行中の処理がある場合は開始せずに ErrBusy を返します。
func (w *Workspace) StartScript(ctx context.Context) error {
	return w.start(ctx, "script", w.runScript)
}

// GenerateAllImages は画像のないパネルを順番に生成します。
func (w *Workspace) GenerateAllImages(ctx context.Context) (generator.Result, error) {
	release, err := w.begin("images")
	if err != nil {
		return generator.Result{}, err
	}
	defer release()
	return w.runImages(ctx)
}

// StartAllImages は GenerateAllImages をバックグラウンドで開始します。
func (w *Workspace) StartAllImages(ctx context.Context) error {
	if err := w.requireStrips(); err != nil {
		return err
	}
	return w.start(ctx, "images", func(ctx context.Context) error {
		_, err := w.runImages(ctx)
		return err
	})
}

// GeneratePanelImage は1パネルだけを生成し直します。
func (w *Workspace) GeneratePanelImage(ctx context.Context, strip, panel int) error {
	release, err := w.begin("panel")
	if err != nil {
		return err
	}
	defer release()
	return w.runPanel(ctx, strip, panel)
}

// StartPanelImage は GeneratePanelImage をバックグラウンドで開始します。
// 位置の誤りは開始前に検出して返します。
func (w *Workspace) StartPanelImage(ctx context.Context, strip, panel int) error {
	w.mu.Lock()
	_, err := w.strips.Panel(strip, panel)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	return w.start(ctx, "panel", func(ctx context.Context) error {
		return w.runPanel(ctx, strip, panel)
	})
}

func (w *Workspace) begin(op string) (func(), error) {
	if !w.busy.TryAcquire(1) {
		return nil, ErrBusy
	}
	w.mu.Lock()
	w.op = op
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		w.op = ""
		w.mu.Unlock()
		w.busy.Release(1)
	}, nil
}

func (w *Workspace) start(ctx context.Context, op string, fn func(context.Context) error) error {
	release, err := w.begin(op)
	if err != nil {
		return err
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer release()
		if err := fn(ctx); err != nil {
			slog.WarnContext(ctx, "Background operation failed", "operation", op, "error", err)
		}
	}()
	return nil
}

func (w *Workspace) requireStrips() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.strips) == 0 {
		return ErrNoStrips
	}
	return nil
}

func (w *Workspace) runScript(ctx context.Context) error {
	w.mu.Lock()
	w.strips = nil
	w.lastErr = ""
	passages := make(domain.Passages, len(w.passages))
	copy(passages, w.passages)
	mode := w.mode
	w.mu.Unlock()

	w.publish(TopicScriptStarted, map[string]any{"mode": mode})
	strips, err := w.script.Run(ctx, passages, mode)
	if err != nil {
		msg := w.fail(err)
		w.publish(TopicScriptFailed, map[string]any{"message": msg, "kind": apierror.KindOf(err).String()})
		return err
	}

	w.mu.Lock()
	w.strips = strips
	w.mu.Unlock()
	w.publish(TopicScriptReady, w.Snapshot())
	return nil
}

func (w *Workspace) runImages(ctx context.Context) (generator.Result, error) {
	w.mu.Lock()
	if len(w.strips) == 0 {
		w.mu.Unlock()
		return generator.Result{}, ErrNoStrips
	}
	strips := w.strips.Clone()
	opts := generator.Options{StyleKey: w.style, Delay: w.delay}
	w.lastErr = ""
	w.mu.Unlock()

	w.publish(TopicImagesStarted, map[string]any{"pending": strips.PendingCount()})
	res, err := w.images.GenerateAll(ctx, strips, opts, w.apply)
	if err != nil {
		msg := w.fail(err)
		w.publish(TopicImagesFailed, map[string]any{"message": msg, "generated": res.Generated})
		return res, err
	}
	w.publish(TopicImagesFinished, res)
	return res, nil
}

func (w *Workspace) runPanel(ctx context.Context, strip, panel int) error {
	w.mu.Lock()
	strips := w.strips.Clone()
	opts := generator.Options{StyleKey: w.style, Delay: w.delay}
	w.lastErr = ""
	w.mu.Unlock()

	if err := w.images.GenerateOne(ctx, strips, strip, panel, opts, w.apply); err != nil {
		msg := w.fail(err)
		w.publish(TopicImagesFailed, map[string]any{"message": msg, "strip": strip, "panel": panel})
		return err
	}
	return nil
}

// apply はジェネレータからのイベントを反映してから通知します。
// 反映するのは EventReady の画像だけです。
func (w *Workspace) apply(ev generator.Event) {
	if ev.Kind == generator.EventReady {
		w.mu.Lock()
		err := w.strips.SetImage(ev.Strip, ev.Panel, ev.ImageURL)
		w.mu.Unlock()
		if err != nil {
			slog.Warn("Dropped panel event for a missing panel", "strip", ev.Strip, "panel", ev.Panel, "error", err)
		}
	}
	w.publish(TopicPanel, ev)
}

func (w *Workspace) fail(err error) string {
	msg := apierror.UserMessage(err)
	w.mu.Lock()
	w.lastErr = msg
	w.mu.Unlock()
	return msg
}

func (w *Workspace) publish(topic string, payload any) {
	if w.notify != nil {
		w.notify(topic, payload)
	}
}
