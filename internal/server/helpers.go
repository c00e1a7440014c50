package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/workspace"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// errValidation は入力値の誤りを 400 として返すためのエラーです。
var errValidation = errors.New("invalid request")

type errorResponse struct {
	Error string `json:"error"`
}

// readJSON はサイズ制限付きで JSON ボディを読み込みます。
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// panelParams は URL の {strip} と {panel} を 0 始まりの位置として読み取ります。
func panelParams(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	s, err1 := strconv.Atoi(chi.URLParam(r, "strip"))
	p, err2 := strconv.Atoi(chi.URLParam(r, "panel"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "strip and panel must be integers")
		return 0, 0, false
	}
	return s, p, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError はワークスペースのエラーを HTTP ステータスに対応付けます。
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workspace.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workspace.ErrPassageNotFound),
		errors.Is(err, workspace.ErrPresetNotFound),
		errors.Is(err, domain.ErrPanelNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, workspace.ErrLastPassage),
		errors.Is(err, workspace.ErrNoStrips),
		errors.Is(err, domain.ErrInvalidScriptMode),
		errors.Is(err, errValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
