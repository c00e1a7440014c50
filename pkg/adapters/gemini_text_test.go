package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/shouni/go-gemini-client/gemini"
)

type fakeContentGenerator struct {
	resp      *gemini.Response
	err       error
	gotModel  string
	gotPrompt string
	calls     int
}

func (f *fakeContentGenerator) GenerateContent(_ context.Context, modelName string, prompt string) (*gemini.Response, error) {
	f.calls++
	f.gotModel = modelName
	f.gotPrompt = prompt
	return f.resp, f.err
}

func TestGeminiTextAdapter_GenerateText(t *testing.T) {
	t.Run("モデル名とプロンプトを正しい位置で渡す", func(t *testing.T) {
		fake := &fakeContentGenerator{resp: &gemini.Response{Text: "  cap|||prompt \n"}}
		a := NewGeminiTextAdapter(fake, "gemini-2.5-flash")

		got, err := a.GenerateText(context.Background(), "Break this text into panels")
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if fake.gotModel != "gemini-2.5-flash" {
			t.Errorf("モデル名が違います: %q", fake.gotModel)
		}
		if fake.gotPrompt != "Break this text into panels" {
			t.Errorf("プロンプトが違います: %q", fake.gotPrompt)
		}
		if got != "cap|||prompt" {
			t.Errorf("応答がトリムされていません: %q", got)
		}
	})

	t.Run("API エラーは再送せずラップして返す", func(t *testing.T) {
		cause := errors.New("connection reset")
		fake := &fakeContentGenerator{err: cause}
		a := NewGeminiTextAdapter(fake, "m")
		if _, err := a.GenerateText(context.Background(), "x"); !errors.Is(err, cause) {
			t.Errorf("元のエラーが辿れません: %v", err)
		}
		if fake.calls != 1 {
			t.Errorf("呼び出しは1回のはずです: %d", fake.calls)
		}
	})

	t.Run("空の API キーではクライアントを作成できない", func(t *testing.T) {
		if _, err := NewGeminiTextClient(context.Background(), "", 1.0); !errors.Is(err, gemini.ErrConfigRequired) {
			t.Errorf("ErrConfigRequired を期待しましたが %v でした", err)
		}
	})
}
