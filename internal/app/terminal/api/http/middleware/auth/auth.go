package auth

import (
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

const realm = `Basic realm="terminal configuration"`

// Basic guards the portal with HTTP basic auth against a bcrypt hash. Any user name is accepted.
type Basic struct {
	hash []byte
	log  *slog.Logger
}

// New returns nil when hash is empty, meaning the portal is open.
func New(hash string, log *slog.Logger) *Basic {
	if hash == "" {
		return nil
	}
	return &Basic{
		hash: []byte(hash),
		log:  log.With(slog.String("component", "auth_middleware")),
	}
}

// check validates an Authorization header value.
func (b *Basic) check(authorization string) bool {
	r := http.Request{Header: http.Header{"Authorization": {authorization}}}
	_, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	if err := bcrypt.CompareHashAndPassword(b.hash, []byte(password)); err != nil {
		b.log.Warn("portal password rejected", slog.Any("error", err))
		return false
	}
	return true
}

// Middleware is the huma flavour. It returns nil on a nil receiver.
func (b *Basic) Middleware() func(huma.Context, func(huma.Context)) {
	if b == nil {
		return nil
	}
	return func(ctx huma.Context, next func(huma.Context)) {
		if !b.check(ctx.Header("Authorization")) {
			ctx.SetHeader("WWW-Authenticate", realm)
			ctx.SetHeader("Content-Type", "application/json")
			ctx.SetStatus(http.StatusUnauthorized)

			if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
				"error": "Unauthorized",
			}); err != nil {
				b.log.Error("failed to write response", slog.Any("error", err))
			}
			return
		}

		next(ctx)
	}
}

// Handler is the net/http flavour for routes served outside huma. A nil receiver passes through.
func (b *Basic) Handler(next http.Handler) http.Handler {
	if b == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.check(r.Header.Get("Authorization")) {
			w.Header().Set("WWW-Authenticate", realm)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
