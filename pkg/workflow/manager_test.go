package workflow

import (
	"context"
	"sync"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/shouni/gemini-image-kit/ports"
)

type stubText struct{ reply string }

func (s stubText) GenerateText(context.Context, string) (string, error) {
	return s.reply, nil
}

type stubImage struct {
	mu      sync.Mutex
	prompts []string
}

func (s *stubImage) GeneratePanel(_ context.Context, req ports.ImagePanelRequest) (*ports.ImageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.Prompt)
	return &ports.ImageResponse{Data: []byte{0xff, 0xd8}, MimeType: "image/jpeg"}, nil
}

type memoryWriter struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (w *memoryWriter) Write(_ context.Context, path string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[path] = data
	return nil
}

func newManager(t *testing.T, img *stubImage, w *memoryWriter) *Manager {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ImageDelay = 0
	m, err := New(context.Background(), ManagerArgs{
		Config:       cfg,
		Writer:       w,
		TextAdapter:  stubText{reply: "He left.|||a knight leaving\nHe rode.|||a knight riding"},
		ImageAdapter: img,
	})
	if err != nil {
		t.Fatalf("Manager の初期化に失敗しました: %v", err)
	}
	return m
}

func TestManager_EndToEnd(t *testing.T) {
	img := &stubImage{}
	w := &memoryWriter{files: map[string][]byte{}}
	m := newManager(t, img, w)
	ctx := context.Background()

	sr, _ := m.BuildScriptRunner()
	strips, err := sr.Run(ctx, domain.Passages{{Title: "Knight", Text: "The knight left."}}, domain.ModeMoments)
	if err != nil {
		t.Fatalf("台本生成に失敗しました: %v", err)
	}
	comic := &domain.Comic{Mode: domain.ModeMoments, Style: "manga", Strips: strips}

	pr, _ := m.BuildPanelImageRunner()
	saves := 0
	res, err := pr.Run(ctx, comic, func(*domain.Comic) error {
		saves++
		return nil
	})
	if err != nil {
		t.Fatalf("画像生成に失敗しました: %v", err)
	}
	if res.Generated != 2 || saves != 2 || !domain.Strips(comic.Strips).Complete() {
		t.Errorf("生成結果が違います: %+v saves=%d", res, saves)
	}
	want := "a knight leaving, black and white manga style, dynamic action lines, screentones, detailed character art"
	if img.prompts[0] != want {
		t.Errorf("プロンプトが違います:\n got: %q\nwant: %q", img.prompts[0], want)
	}

	pub, _ := m.BuildPublishRunner()
	out, err := pub.Run(ctx, comic, "out")
	if err != nil {
		t.Fatalf("パブリッシュに失敗しました: %v", err)
	}
	if len(out.ImagePaths) != 2 {
		t.Errorf("画像の保存数が違います: %v", out.ImagePaths)
	}
	if _, ok := w.files[out.MarkdownPath]; !ok {
		t.Error("Markdown が保存されていません")
	}
}

func TestManager_BuildWorkspace(t *testing.T) {
	m := newManager(t, &stubImage{}, &memoryWriter{files: map[string][]byte{}})
	ws, err := m.BuildWorkspace()
	if err != nil {
		t.Fatalf("Workspace の作成に失敗しました: %v", err)
	}
	st := ws.Snapshot()
	if st.Mode != domain.DefaultScriptMode || st.Style != domain.DefaultStyleKey || st.DelaySeconds != 0 {
		t.Errorf("設定が引き継がれていません: %+v", st)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxAttempts = 0
	if _, err := New(context.Background(), ManagerArgs{Config: cfg, TextAdapter: stubText{}, ImageAdapter: &stubImage{}}); err == nil {
		t.Error("不正な設定でエラーになりませんでした")
	}
}

func TestManager_PublishWithoutAPIKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GeminiAPIKey = ""
	w := &memoryWriter{files: map[string][]byte{}}

	m, err := New(context.Background(), ManagerArgs{Config: cfg, Writer: w})
	if err != nil {
		t.Fatalf("API キーなしでも Manager は作成できるはずです: %v", err)
	}

	pub, err := m.BuildPublishRunner()
	if err != nil {
		t.Fatalf("PublishRunner の作成に失敗しました: %v", err)
	}
	comic := &domain.Comic{
		Mode:  domain.ModeMoments,
		Style: "cinematic",
		Strips: []domain.ComicStrip{{
			Title:  "Knight",
			Panels: []domain.Panel{{ScriptLine: domain.ScriptLine{Caption: "He left.", ImagePrompt: "a knight"}}},
		}},
	}
	out, err := pub.Run(context.Background(), comic, "out")
	if err != nil {
		t.Fatalf("パブリッシュに失敗しました: %v", err)
	}
	if _, ok := w.files[out.MarkdownPath]; !ok {
		t.Error("Markdown が保存されていません")
	}

	t.Run("モデルを使う Runner は作成時にエラーになる", func(t *testing.T) {
		if _, err := m.BuildScriptRunner(); err == nil {
			t.Error("API キーなしで ScriptRunner が作成できてしまいました")
		}
	})
}
