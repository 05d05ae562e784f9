// Package devbackend is a local stand-in for the Spring Boot API: the two
// endpoints the console exercises, behind the same Basic Auth credentials.
package devbackend

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
)

const (
	ServiceName  = "gops-api"
	GameName     = "gops"
	HelloMessage = "Hello from Spring Boot!"
)

type Options struct {
	Logger *zap.Logger
	Now    func() time.Time
}

type backend struct {
	hash []byte
	log  *zap.Logger
	now  func() time.Time
}

func NewRouter(opts Options) (http.Handler, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiclient.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	b := &backend{hash: hash, log: opts.Logger, now: opts.Now}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.now == nil {
		b.now = time.Now
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(b.basicAuth)
		r.Get("/health", b.health)
		r.Get("/hello", b.hello)
	})
	return r, nil
}

func (b *backend) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(apiclient.Username)) != 1 ||
			bcrypt.CompareHashAndPassword(b.hash, []byte(pass)) != nil {
			b.log.Info("rejected credentials", zap.String("path", r.URL.Path), zap.String("user", user))
			w.Header().Set("WWW-Authenticate", `Basic realm="gops"`)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *backend) stamp() string {
	return b.now().UTC().Format(time.RFC3339)
}

func (b *backend) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiclient.Response{
		Status:    apiclient.Str("UP"),
		Service:   apiclient.Str(ServiceName),
		Timestamp: apiclient.Str(b.stamp()),
	})
}

func (b *backend) hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, apiclient.Response{
		Message:   apiclient.Str(HelloMessage),
		Game:      apiclient.Str(GameName),
		Timestamp: apiclient.Str(b.stamp()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
