package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("ファイルの作成に失敗しました: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("ファイルがなければデフォルト値", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if cfg.ImageDelay != 2*time.Second || cfg.Style != domain.DefaultStyleKey || cfg.ServerAddr != DefaultServerAddr {
			t.Errorf("デフォルト値が違います: %+v", cfg)
		}
	})

	t.Run("環境変数は YAML より優先される", func(t *testing.T) {
		path := writeFile(t, "comic-kit.yaml", "style: noir\nimage_delay: 5s\nmode: dialogue\n")
		t.Setenv("COMIC_STYLE", "manga")
		t.Setenv("GEMINI_API_KEY", "key")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if cfg.Style != "manga" || cfg.ImageDelay != 5*time.Second || cfg.Mode != "dialogue" || cfg.GeminiAPIKey != "key" {
			t.Errorf("読み込み結果が違います: %+v", cfg)
		}
	})

	t.Run("IMAGE_DELAY が解釈できなければエラー", func(t *testing.T) {
		t.Setenv("IMAGE_DELAY", "soon")
		if _, err := LoadConfig(""); err == nil {
			t.Error("エラーを期待しました")
		}
	})

	t.Run("壊れた YAML はエラー", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "style: [")
		if _, err := LoadConfig(path); err == nil {
			t.Error("エラーを期待しました")
		}
	})
}

func TestConfig_ToLibraryConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "デフォルトは有効", mutate: func(c *Config) {}},
		{name: "不明なモード", mutate: func(c *Config) { c.Mode = "comic" }, wantErr: true},
		{name: "不明なスタイル", mutate: func(c *Config) { c.Style = "pixel" }, wantErr: true},
		{name: "範囲外の間隔", mutate: func(c *Config) { c.ImageDelay = 20 * time.Second }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			lib, err := cfg.ToLibraryConfig()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v ですが err=%v でした", tt.wantErr, err)
			}
			if err == nil && (lib.StyleKey != cfg.Style || string(lib.ScriptMode) != cfg.Mode) {
				t.Errorf("変換結果が違います: %+v", lib)
			}
		})
	}
}

func TestConfig_LoadPresets(t *testing.T) {
	cfg := Defaults()
	catalog, err := cfg.LoadPresets()
	if err != nil || len(catalog.Presets) != 0 {
		t.Errorf("未指定なら空のカタログを期待しました: %v %v", catalog, err)
	}

	cfg.PresetsFile = writeFile(t, "presets.yaml", "presets:\n  - key: knight\n    label: The Knight\n    text: Once.\n")
	catalog, err = cfg.LoadPresets()
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if p, ok := catalog.Find("knight"); !ok || p.Label != "The Knight" {
		t.Errorf("プリセットが読み込まれていません: %+v", catalog)
	}
}
