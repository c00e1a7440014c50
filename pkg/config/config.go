package config

import (
	"fmt"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// デフォルト値の定義
const (
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultImageModel        = "imagen-4.0-generate-001"
	DefaultImageMimeType     = "image/jpeg"
	DefaultAspectRatio       = "1:1"
	DefaultImageDelay        = 2 * time.Second
	MaxImageDelay            = 10 * time.Second
	DefaultMaxAttempts       = 3
	DefaultRetryBaseDelay    = 2 * time.Second
	DefaultGeminiTemperature = float32(1.0)
)

// Config は Go Comic Kit の各 Runner を動作させるための基本設定です。
type Config struct {
	// --- AI Model Settings ---
	GeminiModel string // 台本生成用のテキストモデル
	ImageModel  string // パネル画像生成用のモデル
	Temperature float32

	// --- Google AI (Gemini API) Settings ---
	GeminiAPIKey string

	// --- Image Settings ---
	ImageMimeType string
	AspectRatio   string
	StyleKey      string
	ScriptMode    domain.ScriptMode

	// --- Sequencing & Retries ---
	ImageDelay     time.Duration // 2枚目以降のリクエスト前に待つ時間
	MaxAttempts    int           // 1パネルあたりの最大試行回数
	RetryBaseDelay time.Duration // 最初の再試行までの待ち時間。以降は倍々になる
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		GeminiModel:    DefaultGeminiModel,
		ImageModel:     DefaultImageModel,
		Temperature:    DefaultGeminiTemperature,
		ImageMimeType:  DefaultImageMimeType,
		AspectRatio:    DefaultAspectRatio,
		StyleKey:       domain.DefaultStyleKey,
		ScriptMode:     domain.DefaultScriptMode,
		ImageDelay:     DefaultImageDelay,
		MaxAttempts:    DefaultMaxAttempts,
		RetryBaseDelay: DefaultRetryBaseDelay,
	}
}

// Validate は値の範囲を検証します。
func (c Config) Validate() error {
	if err := ValidateDelay(c.ImageDelay); err != nil {
		return err
	}
	if !c.ScriptMode.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidScriptMode, c.ScriptMode)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("最大試行回数は1以上である必要があります: %d", c.MaxAttempts)
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("再試行の待ち時間が負の値です: %s", c.RetryBaseDelay)
	}
	return nil
}

// ValidateDelay はリクエスト間の待ち時間が 0〜10 秒の範囲にあるか検証します。
func ValidateDelay(d time.Duration) error {
	if d < 0 || d > MaxImageDelay {
		return fmt.Errorf("画像生成の間隔は 0s から %s の範囲で指定してください: %s", MaxImageDelay, d)
	}
	return nil
}
