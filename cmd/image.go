package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

// imageCmd は、既存の台本JSONファイルを読み込んで画像のないパネルを生成するのだ。
// 1パネルできるたびに台本ファイルへ保存するので、途中で止まっても続きから再開できるのだよ。
var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "台本JSONの未生成パネルを順番に画像化するのだ。",
	Long: `台本JSONを読み込み、画像のないパネルをストリップ順に1枚ずつ生成するのだ。
失敗したパネルは最大3回まで試し、それでも駄目ならそこで止まるのだ。`,
	RunE: imageCommand,
}

func init() {
	imageCmd.Flags().StringVar(&opts.ScriptFile, "script", config.DefaultScriptFile, "台本 JSON のパスなのだ。")
}

func imageCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	comic, err := readComic(appCfg.Options.ScriptFile)
	if err != nil {
		return err
	}
	comic.Style = resolveStyle(cmd.Flags().Changed("style"), comic.Style, appCfg.Style)

	m, err := newManager(ctx)
	if err != nil {
		return err
	}
	return generateImages(ctx, m, comic, appCfg.Options.ScriptFile)
}

// generateImages は未生成パネルを生成し、1枚ごとに scriptPath へ保存するのだ。
func generateImages(ctx context.Context, m *workflow.Manager, comic *domain.Comic, scriptPath string) error {
	pr, err := m.BuildPanelImageRunner()
	if err != nil {
		return err
	}

	slog.Info("画像生成モードを起動するのだ！",
		"script", scriptPath,
		"image_model", appCfg.ImageModel,
		"style", comic.Style,
		"delay", appCfg.ImageDelay)

	res, err := pr.Run(ctx, comic, func(c *domain.Comic) error {
		return writeComic(ctx, scriptPath, c)
	})
	if err != nil {
		return fmt.Errorf("画像生成が途中で止まったのだ（%d 枚は保存済み）: %w", res.Generated, err)
	}
	slog.Info("パネル画像の生成が完了したのだ！", "generated", res.Generated, "skipped", res.Skipped)
	return nil
}
