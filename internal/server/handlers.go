package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shouni/go-comic-kit/pkg/config"
	"github.com/shouni/go-comic-kit/pkg/domain"

	"github.com/go-chi/chi/v5"
)

type passageRequest struct {
	Title *string `json:"title"`
	Text  *string `json:"text"`
}

type presetRequest struct {
	Key string `json:"key"`
}

type settingsRequest struct {
	Mode         *string  `json:"mode"`
	Style        *string  `json:"style"`
	DelaySeconds *float64 `json:"delay_seconds"`
}

type captionRequest struct {
	Caption string `json:"caption"`
}

type dialogueRequest struct {
	Left  *string `json:"left"`
	Right *string `json:"right"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWorkspace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Snapshot())
}

func (s *Server) handleStyles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Styles)
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	presets := s.ws.Presets()
	if presets == nil {
		presets = []domain.Preset{}
	}
	writeJSON(w, http.StatusOK, presets)
}

func (s *Server) handleAddPassage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, s.ws.AddPassage())
}

func (s *Server) handleUpdatePassage(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[passageRequest](w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var (
		p   domain.Passage
		err error
	)
	switch {
	case req.Title == nil && req.Text == nil:
		writeError(w, http.StatusBadRequest, "title or text is required")
		return
	case req.Title != nil:
		p, err = s.ws.UpdatePassageTitle(id, *req.Title)
		if err == nil && req.Text != nil {
			p, err = s.ws.UpdatePassageText(id, *req.Text)
		}
	default:
		p, err = s.ws.UpdatePassageText(id, *req.Text)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRemovePassage(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.RemovePassage(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectPreset(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[presetRequest](w, r)
	if !ok {
		return
	}
	p, err := s.ws.SelectPreset(chi.URLParam(r, "id"), req.Key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[settingsRequest](w, r)
	if !ok {
		return
	}

	// 一部だけ適用されることがないよう、先にすべて検証します。
	var (
		mode  domain.ScriptMode
		delay time.Duration
		err   error
	)
	if req.Mode != nil {
		if mode, err = domain.ParseScriptMode(*req.Mode); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if req.DelaySeconds != nil {
		delay = time.Duration(*req.DelaySeconds * float64(time.Second))
		if err := config.ValidateDelay(delay); err != nil {
			writeDomainError(w, fmt.Errorf("%w: %v", errValidation, err))
			return
		}
	}

	if req.Mode != nil {
		_ = s.ws.SetMode(mode)
	}
	if req.Style != nil {
		s.ws.SetStyle(*req.Style)
	}
	if req.DelaySeconds != nil {
		_ = s.ws.SetDelay(delay)
	}
	writeJSON(w, http.StatusOK, s.ws.Snapshot())
}

func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request) {
	strip, panel, ok := panelParams(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[captionRequest](w, r)
	if !ok {
		return
	}
	if err := s.ws.EditCaption(strip, panel, req.Caption); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDialogue(w http.ResponseWriter, r *http.Request) {
	strip, panel, ok := panelParams(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[dialogueRequest](w, r)
	if !ok {
		return
	}
	if err := s.ws.EditDialogue(strip, panel, req.Left, req.Right); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateScript は受け付けた時点で 202 を返します。進捗は /ws に流れます。
// 処理はリクエストから切り離したコンテキストで続行するため、クライアントが切断しても止まりません。
func (s *Server) handleGenerateScript(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.StartScript(context.WithoutCancel(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "operation": "script"})
}

func (s *Server) handleGenerateImages(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.StartAllImages(context.WithoutCancel(r.Context())); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "operation": "images"})
}

func (s *Server) handleGeneratePanel(w http.ResponseWriter, r *http.Request) {
	strip, panel, ok := panelParams(w, r)
	if !ok {
		return
	}
	if err := s.ws.StartPanelImage(context.WithoutCancel(r.Context()), strip, panel); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "operation": "panel"})
}

func (s *Server) handleExportPNG(w http.ResponseWriter, _ *http.Request) {
	strips := s.ws.Snapshot().Strips
	if len(strips) == 0 {
		writeDomainError(w, errNothingToExport)
		return
	}
	png, err := s.exporter.RenderPNG(strips)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="comic-strips.png"`)
	_, _ = w.Write(png)
}

func (s *Server) handleExportMarkdown(w http.ResponseWriter, _ *http.Request) {
	st := s.ws.Snapshot()
	if len(st.Strips) == 0 {
		writeDomainError(w, errNothingToExport)
		return
	}
	comic := &domain.Comic{Mode: st.Mode, Style: st.Style, Strips: st.Strips}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(s.exporter.BuildMarkdown(comic)))
}

var errNothingToExport = fmt.Errorf("%w: nothing to export", errValidation)
