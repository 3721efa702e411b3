package handlers

import (
	"net/http"

	"beer-tasting-go/internal/middleware"
	"beer-tasting-go/internal/tracing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter builds the gin engine with every route and the shared middleware.
// CORS is applied by the caller around the returned handler.
func NewRouter(env *Env) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(tracing.DefaultServiceName))
	r.Use(middleware.RequestLogger(env.Logger, env.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(env.Metrics.Handler()))

	public := r.Group("")
	protected := r.Group("", middleware.RequireAuth(env.Config, env.Revoked, env.Logger))

	RegisterAuthRoutes(public, protected, env)
	RegisterBroadcastRoutes(protected, env)
	RegisterRoomRoutes(protected, env)
	return r
}
