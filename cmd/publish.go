package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/config"

	"github.com/spf13/cobra"
)

// publishCmd は、台本JSONから Markdown・画像ファイル・PNG を書き出すのだ。
var publishCmd = &cobra.Command{
	Use:         "publish",
	Short:       "台本JSONを Markdown と PNG に書き出すのだ。",
	Annotations: map[string]string{skipAPIKey: "true"},
	RunE:        publishCommand,
}

func init() {
	publishCmd.Flags().StringVar(&opts.ScriptFile, "script", config.DefaultScriptFile, "台本 JSON のパスなのだ。")
	publishCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "出力先ディレクトリなのだ。")
}

func publishCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	comic, err := readComic(appCfg.Options.ScriptFile)
	if err != nil {
		return err
	}
	m, err := newManager(ctx)
	if err != nil {
		return err
	}
	pub, err := m.BuildPublishRunner()
	if err != nil {
		return err
	}

	res, err := pub.Run(ctx, comic, appCfg.Options.OutputDir)
	if err != nil {
		return fmt.Errorf("パブリッシュに失敗したのだ: %w", err)
	}
	slog.Info("パブリッシュが完了したのだ！", "markdown", res.MarkdownPath, "png", res.PNGPath)
	return nil
}
