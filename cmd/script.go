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

// scriptCmd は、台本の生成（JSON出力）のみを実行するのだ。
var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "台本（JSON）のみを生成して保存するのだ。",
	Long: `テキストファイルをパッセージとして読み込み、1回のテキスト生成で
ストリップごとのパネル（キャプションと画像プロンプト）に分解するのだ。画像生成は行わないのだよ。`,
	RunE: scriptCommand,
}

func init() {
	scriptCmd.Flags().StringSliceVarP(&opts.InputFiles, "file", "f", nil, "パッセージとして読むテキストファイルなのだ（複数指定可）。")
	scriptCmd.Flags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultScriptFile, "台本 JSON の保存先なのだ。")
}

func scriptCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	m, err := newManager(ctx)
	if err != nil {
		return err
	}
	comic, err := generateScript(ctx, m)
	if err != nil {
		return err
	}
	if err := writeComic(ctx, appCfg.Options.OutputFile, comic); err != nil {
		return err
	}

	slog.Info("台本（JSON）の生成が完了したのだ！",
		"output_file", appCfg.Options.OutputFile,
		"strips", len(comic.Strips),
		"panels", domain.Strips(comic.Strips).PanelCount())
	return nil
}

// generateScript はパッセージを読み込んで台本を作るのだ。
func generateScript(ctx context.Context, m *workflow.Manager) (*domain.Comic, error) {
	passages, err := readPassages(appCfg.Options.InputFiles)
	if err != nil {
		return nil, err
	}
	mode, err := domain.ParseScriptMode(appCfg.Mode)
	if err != nil {
		return nil, err
	}

	sr, err := m.BuildScriptRunner()
	if err != nil {
		return nil, err
	}
	slog.Info("台本生成モードを起動するのだ！",
		"mode", mode,
		"text_model", appCfg.GeminiModel,
		"passages", len(passages))

	strips, err := sr.Run(ctx, passages, mode)
	if err != nil {
		return nil, fmt.Errorf("台本生成中にエラーが発生したのだ: %w", err)
	}
	return &domain.Comic{
		Mode:   mode,
		Style:  appCfg.Style,
		Strips: strips,
	}, nil
}
