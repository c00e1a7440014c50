package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input).String(); got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("json 形式で出力する", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, "info", "json").Info("hello", "strip", 1)

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("JSON として読めません: %v (%s)", err, buf.String())
		}
		if rec["msg"] != "hello" || rec["strip"] != float64(1) {
			t.Errorf("出力が違います: %v", rec)
		}
	})

	t.Run("レベル未満のログは出力しない", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "warn", "text")
		l.Info("skipped")
		l.Warn("kept")
		if strings.Contains(buf.String(), "skipped") || !strings.Contains(buf.String(), "kept") {
			t.Errorf("出力が違います: %s", buf.String())
		}
	})
}
