package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/internal/logger"

	"github.com/spf13/cobra"
)

// skipAPIKey を付けたコマンドは GEMINI_API_KEY を要求しないのだ。
const skipAPIKey = "skip-api-key"

var (
	opts       config.GenerateOptions
	appCfg     *config.Config
	configFile string
	flags      appFlags
)

// appFlags は設定ファイルや環境変数を上書きするためのグローバルフラグなのだ。
type appFlags struct {
	model      string
	imageModel string
	style      string
	mode       string
	delay      time.Duration
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:   "comic-kit",
	Short: "テキストから AI でコミックストリップを作るのだ。",
	Long: `パッセージ（文章）を台本に分解し、パネルごとに画像を生成して
Markdown と PNG のコミックストリップとして出力するのだ。`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(
		scriptCmd,
		imageCmd,
		panelCmd,
		generateCmd,
		publishCmd,
		serveCmd,
	)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", config.DefaultConfigFile, "設定ファイル（YAML）のパスなのだ。")

	// --- AIモデル・挙動設定 ---
	pf.StringVar(&flags.model, "model", "", "台本生成に使う Gemini モデル名なのだ。")
	pf.StringVar(&flags.imageModel, "image-model", "", "パネル画像の生成に使う Imagen モデル名なのだ。")
	pf.StringVarP(&flags.mode, "mode", "m", "", "台本モード（moments / sentence / dialogue）なのだ。")
	pf.StringVarP(&flags.style, "style", "s", "", "画像スタイル（cinematic / manga / vintage / cartoon / noir）なのだ。台本に保存されたスタイルより優先するのだ。")
	pf.DurationVar(&flags.delay, "delay", 0, "パネル画像リクエストの間隔（0s〜10s）なのだ。")

	// --- ログ ---
	pf.StringVar(&flags.logLevel, "log-level", "", "ログレベル（debug / info / warn / error）なのだ。")
	pf.StringVar(&flags.logFormat, "log-format", "", "ログ形式（text / json）なのだ。")
}

// preRunAppE は、設定を読み込み、コマンド実行前に必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	cfg.Options = opts
	appCfg = cfg

	slog.SetDefault(logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	if cmd.Annotations[skipAPIKey] == "true" {
		return nil
	}
	// Gemini APIを利用するため、APIキーの存在チェックは欠かせないのだ！
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("環境変数 GEMINI_API_KEY が設定されていません。Gemini APIの利用には必須なのだ")
	}
	return nil
}

// applyFlags は明示的に指定されたフラグだけを設定に反映するのだ。
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("model") {
		cfg.GeminiModel = flags.model
	}
	if f.Changed("image-model") {
		cfg.ImageModel = flags.imageModel
	}
	if f.Changed("mode") {
		cfg.Mode = flags.mode
	}
	if f.Changed("style") {
		cfg.Style = flags.style
	}
	if f.Changed("delay") {
		cfg.ImageDelay = flags.delay
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// Ctrl-C を受け取ると実行中の生成をキャンセルするのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
