package middleware

import (
	"net/http"
	"net/url"

	"beer-tasting-go/internal/config"

	"github.com/rs/cors"
)

// CORS wraps the whole HTTP handler. Configured origins are always allowed; in
// development any loopback origin is allowed too, since the SPA dev server port varies.
func CORS(cfg config.Config) *cors.Cors {
	allowed := map[string]bool{}
	for _, o := range cfg.CORSAllowedOrigins {
		allowed[o] = true
	}
	dev := cfg.IsDevelopment()

	return cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			if allowed["*"] || allowed[origin] {
				return true
			}
			return dev && isLoopbackOrigin(origin)
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
}

func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
