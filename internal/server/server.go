package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/workspace"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultRateInterval = 2 * time.Second
	defaultRateBurst    = 3
	shutdownTimeout     = 10 * time.Second
)

// Exporter は台本の Markdown と PNG スナップショットを作ります。
type Exporter interface {
	BuildMarkdown(comic *domain.Comic) string
	RenderPNG(strips domain.Strips) ([]byte, error)
}

// Server は1人分の Workspace を HTTP と WebSocket で公開します。
type Server struct {
	ws       *workspace.Workspace
	exporter Exporter
	hub      *Hub
	limiter  *rate.Limiter
}

// Option は Server の設定を変更します。
type Option func(*Server)

// WithRateLimit は生成系エンドポイントのレート制限を変更します。
func WithRateLimit(every time.Duration, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(rate.Every(every), burst)
	}
}

// New は Server を作成します。hub は ws の通知先として登録済みである必要があります。
func New(ws *workspace.Workspace, exporter Exporter, hub *Hub, opts ...Option) (*Server, error) {
	if ws == nil {
		return nil, fmt.Errorf("workspace は必須です")
	}
	if exporter == nil {
		return nil, fmt.Errorf("exporter は必須です")
	}
	if hub == nil {
		hub = NewHub()
	}
	s := &Server{
		ws:       ws,
		exporter: exporter,
		hub:      hub,
		limiter:  rate.NewLimiter(rate.Every(defaultRateInterval), defaultRateBurst),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler はルーティング済みの http.Handler を返します。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.hub.HandleWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/workspace", s.handleWorkspace)
		r.Get("/styles", s.handleStyles)
		r.Get("/presets", s.handlePresets)

		r.Post("/passages", s.handleAddPassage)
		r.Put("/passages/{id}", s.handleUpdatePassage)
		r.Delete("/passages/{id}", s.handleRemovePassage)
		r.Post("/passages/{id}/preset", s.handleSelectPreset)

		r.Put("/settings", s.handleSettings)

		r.Put("/strips/{strip}/panels/{panel}/caption", s.handleCaption)
		r.Put("/strips/{strip}/panels/{panel}/dialogue", s.handleDialogue)

		r.Get("/export.png", s.handleExportPNG)
		r.Get("/export.md", s.handleExportMarkdown)

		r.Group(func(r chi.Router) {
			r.Use(rateLimit(s.limiter))
			r.Post("/script", s.handleGenerateScript)
			r.Post("/images", s.handleGenerateImages)
			r.Post("/strips/{strip}/panels/{panel}/image", s.handleGeneratePanel)
		})
	})
	return r
}

// Run は ctx がキャンセルされるまで addr で待ち受け、その後グレースフルに停止します。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP サーバーの起動に失敗しました: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down HTTP server")
		s.hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// rateLimit は上限を超えたリクエストを 429 で拒否します。
func rateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeError(w, http.StatusTooManyRequests, "too many generation requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
