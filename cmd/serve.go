package cmd

import (
	"log/slog"

	"github.com/shouni/go-comic-kit/examples"
	"github.com/shouni/go-comic-kit/internal/server"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/workspace"

	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd は、ブラウザ UI などから操作するための HTTP / WebSocket API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "コミック生成の HTTP API を起動するのだ。",
	RunE:  serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "待ち受けアドレスなのだ（既定は SERVER_ADDR か :8080）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	addr := appCfg.ServerAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	catalog, err := loadCatalog()
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

	hub := server.NewHub()
	ws, err := m.BuildWorkspace(
		workspace.WithCatalog(catalog),
		workspace.WithNotifier(hub.Publish),
	)
	if err != nil {
		return err
	}
	srv, err := server.New(ws, pub, hub)
	if err != nil {
		return err
	}
	return srv.Run(ctx, addr)
}

// loadCatalog は PRESETS_FILE があればそれを、なければ同梱のプリセットを読むのだ。
func loadCatalog() (domain.PresetCatalog, error) {
	if appCfg.PresetsFile != "" {
		return appCfg.LoadPresets()
	}
	catalog, err := examples.LoadPresets()
	if err != nil {
		return domain.PresetCatalog{}, err
	}
	slog.Debug("同梱のプリセットを使うのだ", "presets", len(catalog.Presets))
	return catalog, nil
}
