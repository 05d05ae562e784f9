package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
	"github.com/DoyleJ11/gops-apitest/internal/history"
	"github.com/DoyleJ11/gops-apitest/internal/hub"
	"github.com/DoyleJ11/gops-apitest/internal/runner"
	"github.com/DoyleJ11/gops-apitest/internal/types"
	"github.com/DoyleJ11/gops-apitest/internal/view"
)

var errNoSession = errors.New("session not found")

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// mountSession picks an unused code and mounts a runner for it. The hub
// refuses taken codes, so a collision just means another draw.
func mountSession(ctx context.Context, h *hub.Hub, log *zap.Logger) (string, error) {
	for {
		c, err := GenerateCode()
		if err != nil {
			return "", err
		}
		rn, err := h.Create(ctx, c)
		if err != nil {
			return "", err
		}
		if rn == nil {
			log.Debug("collision on code, regenerating", zap.String("code", c))
			continue
		}
		return c, nil
	}
}

func lookup(ctx context.Context, h *hub.Hub, code string) (*runner.Runner, error) {
	rn, err := h.Lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if rn == nil {
		return nil, errNoSession
	}
	return rn, nil
}

// hubError maps a hub helper error to a status: unknown sessions are 404,
// a stopped hub (server shutting down) is 503.
func hubError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoSession) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, "service unavailable", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func mountFailed(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, hub.ErrStopped) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	log.Error("mount session", zap.Error(err))
	http.Error(w, "failed to create session", http.StatusInternalServerError)
}

func CreateSession(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := mountSession(r.Context(), h, log)
		if err != nil {
			mountFailed(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func GetSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rn, err := lookup(r.Context(), h, chi.URLParam(r, "code"))
		if err != nil {
			hubError(w, err)
			return
		}
		v, err := rn.Current(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusGone)
			return
		}
		writeJSON(w, http.StatusOK, types.ViewMessage(v))
	}
}

func DeleteSession(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := h.Remove(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			hubError(w, err)
			return
		}
		if !removed {
			http.Error(w, errNoSession.Error(), http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func TriggerFetch(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, status, err := trigger(h, r)
		if err != nil {
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, http.StatusAccepted, struct {
			Seq uint64 `json:"seq"`
		}{Seq: seq})
	}
}

func trigger(h *hub.Hub, r *http.Request) (uint64, int, error) {
	endpoint, ok := apiclient.ParseEndpoint(chi.URLParam(r, "endpoint"))
	if !ok {
		return 0, http.StatusNotFound, errors.New("unknown endpoint")
	}
	rn, err := lookup(r.Context(), h, chi.URLParam(r, "code"))
	if err != nil {
		if errors.Is(err, errNoSession) {
			return 0, http.StatusNotFound, err
		}
		return 0, http.StatusServiceUnavailable, err
	}
	seq := rn.Fetch(endpoint)
	if seq == 0 {
		return 0, http.StatusGone, runner.ErrStopped
	}
	return seq, 0, nil
}

// AttemptLister reads the diagnostic attempt log.
type AttemptLister interface {
	List(ctx context.Context, session string, limit int) ([]history.Attempt, error)
}

type attemptJSON struct {
	history.Attempt
	DurationMs int64  `json:"duration_ms"`
	Age        string `json:"age"`
}

func ListHistory(lister AttemptLister, now func() time.Time, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			http.Error(w, "attempt log disabled", http.StatusNotFound)
			return
		}
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		attempts, err := lister.List(r.Context(), chi.URLParam(r, "code"), limit)
		if err != nil {
			log.Error("list attempts", zap.Error(err))
			http.Error(w, "failed to list attempts", http.StatusInternalServerError)
			return
		}

		t := now()
		out := make([]attemptJSON, 0, len(attempts))
		for _, a := range attempts {
			out = append(out, attemptJSON{Attempt: a, DurationMs: a.Duration().Milliseconds(), Age: a.Age(t)})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Home(log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := view.RenderHome(w); err != nil {
			log.Error("render home", zap.Error(err))
		}
	}
}

func OpenConsole(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := mountSession(r.Context(), h, log)
		if err != nil {
			mountFailed(w, log, err)
			return
		}
		http.Redirect(w, r, "/console/"+code, http.StatusSeeOther)
	}
}

func ConsolePage(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		rn, err := lookup(r.Context(), h, code)
		if err != nil {
			hubError(w, err)
			return
		}
		v, err := rn.Current(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusGone)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := view.RenderHTML(w, view.NewPage(code, v.State)); err != nil {
			log.Error("render console", zap.String("session", code), zap.Error(err))
		}
	}
}

func ConsoleFetch(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, status, err := trigger(h, r); err != nil {
			http.Error(w, err.Error(), status)
			return
		}
		http.Redirect(w, r, "/console/"+chi.URLParam(r, "code"), http.StatusSeeOther)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
