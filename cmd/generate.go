package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/shouni/go-comic-kit/internal/config"

	"github.com/spf13/cobra"
)

// generateCmd は、台本生成・画像生成・パブリッシュを一気に実行するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "テキストからコミックストリップを一括生成するのだ。",
	Long: `パッセージから台本を作り、全パネルの画像を生成して、Markdown と PNG に書き出すのだ。
台本 JSON も出力先に保存されるので、失敗しても image コマンドで続きから再開できるのだよ。`,
	RunE: generateCommand,
}

func init() {
	generateCmd.Flags().StringSliceVarP(&opts.InputFiles, "file", "f", nil, "パッセージとして読むテキストファイルなのだ（複数指定可）。")
	generateCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "出力先ディレクトリなのだ。")
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	o := appCfg.Options

	m, err := newManager(ctx)
	if err != nil {
		return err
	}

	// 1. 台本
	comic, err := generateScript(ctx, m)
	if err != nil {
		return err
	}
	scriptPath := filepath.Join(o.OutputDir, filepath.Base(config.DefaultScriptFile))
	if err := writeComic(ctx, scriptPath, comic); err != nil {
		return err
	}

	// 2. 画像
	if err := generateImages(ctx, m, comic, scriptPath); err != nil {
		return err
	}

	// 3. パブリッシュ
	pub, err := m.BuildPublishRunner()
	if err != nil {
		return err
	}
	res, err := pub.Run(ctx, comic, o.OutputDir)
	if err != nil {
		return fmt.Errorf("パブリッシュに失敗したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！", "markdown", res.MarkdownPath, "png", res.PNGPath, "script", scriptPath)
	return nil
}
