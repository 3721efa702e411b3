package handlers

import (
	"database/sql"

	"beer-tasting-go/internal/auth"
	"beer-tasting-go/internal/broadcast"
	"beer-tasting-go/internal/config"
	"beer-tasting-go/internal/metrics"
	"beer-tasting-go/internal/revocation"

	"go.uber.org/zap"
)

// Env carries the dependencies shared by every handler.
type Env struct {
	DB          *sql.DB
	Config      config.Config
	Tokens      *auth.ChannelTokens
	Broadcaster *broadcast.Broadcaster
	Revoked     revocation.Store
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}
