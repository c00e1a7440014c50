package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	libcfg "github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/shouni/go-utils/envutil"
	"gopkg.in/yaml.v3"
)

// デフォルト値の定義なのだ
const (
	DefaultConfigFile = "comic-kit.yaml"
	DefaultScriptFile = "output/comic_script.json" // script コマンドの保存先なのだ
	DefaultOutputDir  = "output"                   // パブリッシャーで使用するデフォルト保存先なのだ
	DefaultServerAddr = ":8080"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config はアプリケーション全体の環境設定を保持する構造体なのだ。
// 優先順位は デフォルト < YAML < 環境変数 < CLI フラグ です。
type Config struct {
	GeminiAPIKey string        `yaml:"-"`
	GeminiModel  string        `yaml:"gemini_model"`
	ImageModel   string        `yaml:"image_model"`
	Style        string        `yaml:"style"`
	Mode         string        `yaml:"mode"`
	ImageDelay   time.Duration `yaml:"image_delay"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	ServerAddr   string        `yaml:"server_addr"`
	PresetsFile  string        `yaml:"presets_file"`
	FontFile     string        `yaml:"font_file"`

	Options GenerateOptions `yaml:"-"`
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入力・出力
	InputFiles []string // --file: パッセージとして読むテキストファイル
	ScriptFile string   // --script: 台本 JSON のパス
	OutputFile string   // --output-file
	OutputDir  string   // --output-dir

	// 生成対象
	Strip int // --strip (1 始まり)
	Panel int // --panel (1 始まり)
}

// Defaults は既定値で埋めた Config を返します。
func Defaults() Config {
	lib := libcfg.DefaultConfig()
	return Config{
		GeminiModel: lib.GeminiModel,
		ImageModel:  lib.ImageModel,
		Style:       lib.StyleKey,
		Mode:        string(lib.ScriptMode),
		ImageDelay:  lib.ImageDelay,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		ServerAddr:  DefaultServerAddr,
		Options: GenerateOptions{
			ScriptFile: DefaultScriptFile,
			OutputDir:  DefaultOutputDir,
		},
	}
}

// LoadConfig は YAML と環境変数から設定を読み込むのだ！
// YAML ファイルは任意で、存在しなくてもエラーにはなりません。
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadYAML(&cfg, path); err != nil {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
		}
	}

	if err := loadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnv は空でない環境変数だけを上書きします。
func loadEnv(cfg *Config) error {
	cfg.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = envutil.GetEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.ImageModel = envutil.GetEnv("IMAGE_MODEL", cfg.ImageModel)
	cfg.Style = envutil.GetEnv("COMIC_STYLE", cfg.Style)
	cfg.Mode = envutil.GetEnv("COMIC_MODE", cfg.Mode)
	cfg.LogLevel = envutil.GetEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envutil.GetEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.ServerAddr = envutil.GetEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.PresetsFile = envutil.GetEnv("PRESETS_FILE", cfg.PresetsFile)
	cfg.FontFile = envutil.GetEnv("FONT_FILE", cfg.FontFile)

	if v := envutil.GetEnv("IMAGE_DELAY", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("IMAGE_DELAY を解釈できません: %w", err)
		}
		cfg.ImageDelay = d
	}
	return nil
}

// ToLibraryConfig は各 Runner に渡す pkg/config.Config に変換します。
func (c *Config) ToLibraryConfig() (libcfg.Config, error) {
	mode, err := domain.ParseScriptMode(c.Mode)
	if err != nil {
		return libcfg.Config{}, err
	}
	style, ok := domain.LookupStyle(c.Style)
	if !ok {
		return libcfg.Config{}, fmt.Errorf("不明なスタイルです: %q", c.Style)
	}

	lib := libcfg.DefaultConfig()
	lib.GeminiAPIKey = c.GeminiAPIKey
	lib.GeminiModel = c.GeminiModel
	lib.ImageModel = c.ImageModel
	lib.StyleKey = style.Key
	lib.ScriptMode = mode
	lib.ImageDelay = c.ImageDelay
	if err := lib.Validate(); err != nil {
		return libcfg.Config{}, err
	}
	return lib, nil
}

// LoadPresets はプリセットファイルを読み込みます。未指定の場合は空のカタログを返します。
func (c *Config) LoadPresets() (domain.PresetCatalog, error) {
	if c.PresetsFile == "" {
		return domain.PresetCatalog{}, nil
	}
	return domain.LoadPresets(c.PresetsFile)
}
