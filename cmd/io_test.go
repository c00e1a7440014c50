package cmd

import "testing"

func TestResolveStyle(t *testing.T) {
	tests := []struct {
		name       string
		flagSet    bool
		saved      string
		configured string
		want       string
	}{
		{"フラグ指定は常に優先", true, "noir", "cinematic", "cinematic"},
		{"台本にスタイルがなければ設定を使う", false, "", "cinematic", "cinematic"},
		{"環境変数や設定ファイルの指定は台本より優先", false, "noir", "manga", "manga"},
		{"設定が既定のままなら台本のスタイルを使う", false, "noir", "cinematic", "noir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveStyle(tt.flagSet, tt.saved, tt.configured); got != tt.want {
				t.Errorf("resolveStyle() = %q, want %q", got, tt.want)
			}
		})
	}
}
