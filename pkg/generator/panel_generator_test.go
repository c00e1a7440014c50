package generator

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-comic-kit/pkg/apierror"
	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/cenkalti/backoff/v4"
	"github.com/shouni/gemini-image-kit/ports"
)

// fakeAdapter は呼び出し順を記録し、プロンプトごとに決められた結果を返します。
type fakeAdapter struct {
	prompts []string
	// failures はプロンプトの接頭辞ごとに、先頭から何回失敗させるかを表します。負の値は常に失敗します。
	failures map[string]int
	err      error
	calls    map[string]int
	log      *[]string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		failures: map[string]int{},
		calls:    map[string]int{},
		err:      errors.New("503 service unavailable"),
	}
}

func (f *fakeAdapter) GeneratePanel(_ context.Context, req ports.ImagePanelRequest) (*ports.ImageResponse, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if f.log != nil {
		*f.log = append(*f.log, "request:"+req.Prompt)
	}
	key := strings.SplitN(req.Prompt, ",", 2)[0]
	f.calls[key]++
	if n, ok := f.failures[key]; ok && (n < 0 || f.calls[key] <= n) {
		return nil, f.err
	}
	return &ports.ImageResponse{Data: []byte(key), MimeType: "image/jpeg"}, nil
}

// recordingTimer は待たずに即時発火し、要求された待ち時間を記録します。
type recordingTimer struct {
	waits *[]time.Duration
	log   *[]string
	ch    chan time.Time
}

func (t *recordingTimer) Start(d time.Duration) {
	*t.waits = append(*t.waits, d)
	if t.log != nil {
		*t.log = append(*t.log, "backoff:"+d.String())
	}
	t.ch <- time.Now()
}
func (t *recordingTimer) Stop()               {}
func (t *recordingTimer) C() <-chan time.Time { return t.ch }

type harness struct {
	gen     *PanelGenerator
	adapter *fakeAdapter
	delays  []time.Duration
	waits   []time.Duration
	events  []Event
	log     []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{adapter: newFakeAdapter()}
	h.adapter.log = &h.log

	gen, err := NewPanelGenerator(h.adapter, config.DefaultConfig(),
		WithWaitFunc(func(_ context.Context, d time.Duration) error {
			h.delays = append(h.delays, d)
			h.log = append(h.log, "delay:"+d.String())
			return nil
		}),
		WithRetryTimer(func() backoff.Timer {
			return &recordingTimer{waits: &h.waits, log: &h.log, ch: make(chan time.Time, 1)}
		}),
	)
	if err != nil {
		t.Fatalf("初期化に失敗しました: %v", err)
	}
	h.gen = gen
	return h
}

func (h *harness) sink(ev Event) {
	h.events = append(h.events, ev)
}

func (h *harness) kinds() []EventKind {
	out := make([]EventKind, len(h.events))
	for i, ev := range h.events {
		out[i] = ev.Kind
	}
	return out
}

func strips(prompts ...[]string) domain.Strips {
	out := make(domain.Strips, len(prompts))
	for i, ps := range prompts {
		for _, p := range ps {
			out[i].Panels = append(out[i].Panels, domain.Panel{ScriptLine: domain.ScriptLine{ImagePrompt: p}})
		}
	}
	return out
}

func TestPanelGenerator_GenerateAll_Order(t *testing.T) {
	h := newHarness(t)
	ss := strips([]string{"a", "b"}, []string{"c"})

	res, err := h.gen.GenerateAll(context.Background(), ss, Options{StyleKey: "manga", Delay: 2 * time.Second}, h.sink)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if res.Generated != 3 || res.Skipped != 0 {
		t.Errorf("集計が違います: %+v", res)
	}

	suffix := ", black and white manga style, dynamic action lines, screentones, detailed character art"
	wantLog := []string{
		"request:a" + suffix,
		"delay:2s",
		"request:b" + suffix,
		"delay:2s",
		"request:c" + suffix,
	}
	if !reflect.DeepEqual(h.log, wantLog) {
		t.Errorf("呼び出し順が違います\n期待: %v\n実際: %v", wantLog, h.log)
	}

	var ready []Event
	for _, ev := range h.events {
		if ev.Kind == EventReady {
			ready = append(ready, ev)
		}
	}
	if len(ready) != 3 || ready[2].Strip != 1 || ready[2].Panel != 0 {
		t.Fatalf("Ready イベントが期待通りではありません: %+v", ready)
	}
	if ready[0].ImageURL != domain.EncodeDataURL("image/jpeg", []byte("a")) {
		t.Errorf("data URL が違います: %s", ready[0].ImageURL)
	}
	if ss.PendingCount() != 3 {
		t.Error("ジェネレータが入力のストリップを書き換えました")
	}
}

func TestPanelGenerator_GenerateAll_SkipsExistingImages(t *testing.T) {
	h := newHarness(t)
	ss := strips([]string{"a", "b", "c"})
	ss[0].Panels[0].ImageURL = "data:image/jpeg;base64,AA=="
	ss[0].Panels[2].ImageURL = "data:image/jpeg;base64,AA=="

	res, err := h.gen.GenerateAll(context.Background(), ss, Options{Delay: time.Second}, h.sink)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if res.Generated != 1 || res.Skipped != 2 {
		t.Errorf("集計が違います: %+v", res)
	}
	if len(h.adapter.prompts) != 1 || !strings.HasPrefix(h.adapter.prompts[0], "b, ") {
		t.Errorf("未生成のパネルだけが要求されるべきです: %v", h.adapter.prompts)
	}
	if len(h.delays) != 0 {
		t.Errorf("最初のリクエストの前に待ってはいけません: %v", h.delays)
	}

	h2 := newHarness(t)
	ss[0].Panels[1].ImageURL = "data:image/jpeg;base64,AA=="
	res, err = h2.gen.GenerateAll(context.Background(), ss, Options{}, h2.sink)
	if err != nil || res.Generated != 0 || len(h2.adapter.prompts) != 0 {
		t.Errorf("全パネル生成済みならリクエストは発生しないはずです: %+v %v", res, err)
	}
}

func TestPanelGenerator_GenerateAll_RetryThenSuccess(t *testing.T) {
	h := newHarness(t)
	h.adapter.failures["a"] = 2

	_, err := h.gen.GenerateAll(context.Background(), strips([]string{"a"}), Options{}, h.sink)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if h.adapter.calls["a"] != 3 {
		t.Errorf("3回目で成功するはずです: %d", h.adapter.calls["a"])
	}
	if want := []time.Duration{2 * time.Second, 4 * time.Second}; !reflect.DeepEqual(h.waits, want) {
		t.Errorf("バックオフが違います: 期待 %v, 実際 %v", want, h.waits)
	}
	want := []EventKind{EventRequesting, EventRetrying, EventRequesting, EventRetrying, EventRequesting, EventReady}
	if !reflect.DeepEqual(h.kinds(), want) {
		t.Errorf("イベント列が違います: %v", h.kinds())
	}
}

func TestPanelGenerator_GenerateAll_FailFast(t *testing.T) {
	h := newHarness(t)
	h.adapter.failures["b"] = -1
	ss := strips([]string{"a", "b", "c"}, []string{"d"})

	res, err := h.gen.GenerateAll(context.Background(), ss, Options{Delay: time.Second}, h.sink)
	if err == nil {
		t.Fatal("エラーが返りませんでした")
	}
	if apierror.KindOf(err) != apierror.TransientOrUnknown {
		t.Errorf("分類が違います: %v", err)
	}
	if res.Generated != 1 {
		t.Errorf("失敗前に1枚だけ生成されているはずです: %+v", res)
	}
	if h.adapter.calls["b"] != 3 {
		t.Errorf("失敗し続けるパネルはちょうど3回要求されるはずです: %d", h.adapter.calls["b"])
	}
	if h.adapter.calls["c"] != 0 || h.adapter.calls["d"] != 0 {
		t.Error("打ち切り後のパネルが要求されました")
	}
	if want := []time.Duration{2 * time.Second, 4 * time.Second}; !reflect.DeepEqual(h.waits, want) {
		t.Errorf("バックオフが違います: 期待 %v, 実際 %v", want, h.waits)
	}
	last := h.events[len(h.events)-1]
	if last.Kind != EventFailed || last.Strip != 0 || last.Panel != 1 || last.Attempt != 3 {
		t.Errorf("最後のイベントが Failed ではありません: %+v", last)
	}
}

func TestPanelGenerator_InvalidCredentialIsNotRetried(t *testing.T) {
	h := newHarness(t)
	h.adapter.failures["a"] = -1
	h.adapter.err = errors.New("API key not valid. Please pass a valid API key.")

	_, err := h.gen.GenerateAll(context.Background(), strips([]string{"a", "b"}), Options{}, h.sink)
	if apierror.KindOf(err) != apierror.InvalidCredential {
		t.Fatalf("InvalidCredential を期待しましたが %v でした", err)
	}
	if h.adapter.calls["a"] != 1 {
		t.Errorf("無効なキーは再試行しないはずです: %d", h.adapter.calls["a"])
	}
	if len(h.waits) != 0 {
		t.Errorf("バックオフは発生しないはずです: %v", h.waits)
	}
}

func TestPanelGenerator_QuotaIsRetried(t *testing.T) {
	h := newHarness(t)
	h.adapter.failures["a"] = 1
	h.adapter.err = errors.New("Quota exceeded")

	if _, err := h.gen.GenerateAll(context.Background(), strips([]string{"a"}), Options{}, h.sink); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if h.adapter.calls["a"] != 2 {
		t.Errorf("利用枠超過は再試行されるはずです: %d", h.adapter.calls["a"])
	}
	if h.events[1].Kind != EventRetrying || h.events[1].Wait != 2*time.Second {
		t.Errorf("Retrying イベントが違います: %+v", h.events[1])
	}
}

func TestPanelGenerator_GenerateOne(t *testing.T) {
	t.Run("既存の画像があっても再生成する", func(t *testing.T) {
		h := newHarness(t)
		ss := strips([]string{"a", "b"})
		ss[0].Panels[1].ImageURL = "data:image/jpeg;base64,AA=="

		if err := h.gen.GenerateOne(context.Background(), ss, 0, 1, Options{StyleKey: "cartoon"}, h.sink); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(h.adapter.prompts) != 1 || !strings.HasPrefix(h.adapter.prompts[0], "b, bright and cheerful") {
			t.Errorf("要求内容が違います: %v", h.adapter.prompts)
		}
		last := h.events[len(h.events)-1]
		if last.Kind != EventReady || last.Panel != 1 {
			t.Errorf("Ready イベントが違います: %+v", last)
		}
		if len(h.delays) != 0 {
			t.Error("単発の再生成では待機しないはずです")
		}
	})

	t.Run("範囲外はエラー", func(t *testing.T) {
		h := newHarness(t)
		err := h.gen.GenerateOne(context.Background(), strips([]string{"a"}), 0, 3, Options{}, h.sink)
		if !errors.Is(err, domain.ErrPanelNotFound) {
			t.Errorf("ErrPanelNotFound を期待しましたが %v でした", err)
		}
	})

	t.Run("空のプロンプトはエラー", func(t *testing.T) {
		h := newHarness(t)
		err := h.gen.GenerateOne(context.Background(), strips([]string{""}), 0, 0, Options{}, h.sink)
		if !errors.Is(err, ErrEmptyImagePrompt) {
			t.Errorf("ErrEmptyImagePrompt を期待しましたが %v でした", err)
		}
	})

	t.Run("再試行を使い切ると失敗を返す", func(t *testing.T) {
		h := newHarness(t)
		h.adapter.failures["a"] = -1
		err := h.gen.GenerateOne(context.Background(), strips([]string{"a"}), 0, 0, Options{}, h.sink)
		if err == nil || h.adapter.calls["a"] != 3 {
			t.Errorf("3回試行して失敗するはずです: calls=%d err=%v", h.adapter.calls["a"], err)
		}
	})
}

func TestPanelGenerator_InvalidDelay(t *testing.T) {
	h := newHarness(t)
	if _, err := h.gen.GenerateAll(context.Background(), strips([]string{"a"}), Options{Delay: 11 * time.Second}, h.sink); err == nil {
		t.Error("範囲外の待ち時間でエラーになりませんでした")
	}
	if len(h.adapter.prompts) != 0 {
		t.Error("検証エラー時にリクエストが発生しました")
	}
}

func TestPanelGenerator_ContextCanceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.gen.wait = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	res, err := h.gen.GenerateAll(ctx, strips([]string{"a", "b"}), Options{Delay: time.Second}, h.sink)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("context.Canceled を期待しましたが %v でした", err)
	}
	if res.Generated != 1 || len(h.adapter.prompts) != 1 {
		t.Errorf("キャンセル後にリクエストが発生しました: %+v", res)
	}
}
