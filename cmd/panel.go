package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/config"

	"github.com/spf13/cobra"
)

// panelCmd は、指定した1パネルだけを生成し直すのだ。
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "指定したパネルの画像を生成し直すのだ。",
	Long: `台本JSONの中から --strip と --panel（どちらも1始まり）で指定したパネルを、
既存の画像があっても生成し直すのだ。`,
	RunE: panelCommand,
}

func init() {
	panelCmd.Flags().StringVar(&opts.ScriptFile, "script", config.DefaultScriptFile, "台本 JSON のパスなのだ。")
	panelCmd.Flags().IntVar(&opts.Strip, "strip", 1, "ストリップ番号（1始まり）なのだ。")
	panelCmd.Flags().IntVar(&opts.Panel, "panel", 1, "パネル番号（1始まり）なのだ。")
}

func panelCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	o := appCfg.Options

	comic, err := readComic(o.ScriptFile)
	if err != nil {
		return err
	}
	comic.Style = resolveStyle(cmd.Flags().Changed("style"), comic.Style, appCfg.Style)

	m, err := newManager(ctx)
	if err != nil {
		return err
	}
	pr, err := m.BuildPanelImageRunner()
	if err != nil {
		return err
	}

	slog.Info("パネルを再生成するのだ！", "strip", o.Strip, "panel", o.Panel, "style", comic.Style)
	if err := pr.RunPanel(ctx, comic, o.Strip-1, o.Panel-1, nil); err != nil {
		return err
	}
	if err := writeComic(ctx, o.ScriptFile, comic); err != nil {
		return fmt.Errorf("台本の保存に失敗したのだ: %w", err)
	}
	slog.Info("パネルの再生成が完了したのだ！", "script", o.ScriptFile)
	return nil
}
