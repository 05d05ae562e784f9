package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/gops-apitest/internal/hub"
	"github.com/DoyleJ11/gops-apitest/internal/ws"
)

type Options struct {
	Logger  *zap.Logger
	History AttemptLister // nil disables /history
	Now     func() time.Time
}

func SetupRoutes(h *hub.Hub, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))

	// Pages
	r.Get("/", Home(log))
	r.Post("/console", OpenConsole(h, log))
	r.Get("/console/{code}", ConsolePage(h, log))
	r.Post("/console/{code}/{endpoint}", ConsoleFetch(h))

	// JSON surface
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", CreateSession(h, log))
		r.Get("/{code}", GetSession(h))
		r.Delete("/{code}", DeleteSession(h))
		r.Get("/{code}/history", ListHistory(opts.History, now, log))
		r.Post("/{code}/{endpoint}", TriggerFetch(h))
	})

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, log))
	return r
}

func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
