package prompts

import (
	"strings"
	"testing"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

func TestTextPromptBuilder_Build(t *testing.T) {
	pb, err := NewTextPromptBuilder()
	if err != nil {
		t.Fatalf("初期化に失敗しました: %v", err)
	}

	tests := []struct {
		name   string
		mode   domain.ScriptMode
		format string
	}{
		{name: "moments", mode: domain.ModeMoments, format: "CAPTION|||IMAGE_PROMPT"},
		{name: "sentence", mode: domain.ModeSentence, format: "CAPTION|||IMAGE_PROMPT"},
		{name: "dialogue", mode: domain.ModeDialogue, format: "IMAGE_PROMPT|||LEFT_SPEAKER_TEXT|||RIGHT_SPEAKER_TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pb.Build(tt.mode, TemplateData{InputText: "昔々あるところに"})
			if err != nil {
				t.Fatalf("予期しないエラー: %v", err)
			}
			if !strings.Contains(got, tt.format) {
				t.Errorf("行フォーマット %q が含まれていません", tt.format)
			}
			if !strings.Contains(got, "---PASSAGE_BREAK---") {
				t.Error("パッセージ区切りの指示が含まれていません")
			}
			if !strings.HasSuffix(strings.TrimSpace(got), "---TEXT---\n昔々あるところに") {
				t.Errorf("入力テキストがマーカーの後ろに配置されていません: %q", got[len(got)-40:])
			}
		})
	}

	t.Run("不明なモードはエラー", func(t *testing.T) {
		if _, err := pb.Build("haiku", TemplateData{}); err == nil {
			t.Error("エラーが返りませんでした")
		}
	})
}

func TestImagePromptBuilder(t *testing.T) {
	pb := NewImagePromptBuilder("noir")
	got := pb.BuildPanel(domain.Panel{ScriptLine: domain.ScriptLine{ImagePrompt: " a detective in the rain "}})
	want := "a detective in the rain, dark noir comic style, high contrast black and white, dramatic shadows, mystery atmosphere"
	if got != want {
		t.Errorf("期待値 %q, 実際の値 %q", want, got)
	}

	if NewImagePromptBuilder("unknown").Style().Key != domain.DefaultStyleKey {
		t.Error("不明な画風はデフォルトにフォールバックするべきです")
	}
}
