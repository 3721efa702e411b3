package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"beer-tasting-go/internal/broadcast"
	"beer-tasting-go/internal/metrics"
	"beer-tasting-go/internal/models"
	"beer-tasting-go/internal/tracing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errChannelForbidden = errors.New("channel belongs to another user")

type subscribeRequest struct {
	Channel string `json:"channel"`
}

// ConnectionTokenHandler issues the token the real-time client presents on connect.
func ConnectionTokenHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, span := tracing.StartSpan(c.Request.Context(), "handlers.ConnectionTokenHandler")
		defer span.End()

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		token, exp, err := env.Tokens.ConnectionToken(userID)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		env.Metrics.TokensIssued.WithLabelValues(metrics.TokenConnection).Inc()
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp.Unix()})
	}
}

// SubscriptionTokenHandler issues a token for one channel after checking the caller may read it.
func SubscriptionTokenHandler(env *Env) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartSpan(c.Request.Context(), "handlers.SubscriptionTokenHandler")
		defer span.End()

		userID, ok := userIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Channel) == "" {
			env.Metrics.TokensDenied.WithLabelValues(metrics.TokenSubscription, "bad_request").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "channel required"})
			return
		}

		ch, err := broadcast.ParseChannel(req.Channel)
		if err != nil {
			env.Metrics.TokensDenied.WithLabelValues(metrics.TokenSubscription, "unknown_channel").Inc()
			c.JSON(http.StatusForbidden, gin.H{"error": "unknown channel"})
			return
		}

		if err := authorizeChannel(ctx, env, userID, ch); err != nil {
			if errors.Is(err, errChannelForbidden) || errors.Is(err, models.ErrNotRoomMember) || errors.Is(err, models.ErrNotFound) {
				env.Metrics.TokensDenied.WithLabelValues(metrics.TokenSubscription, "forbidden").Inc()
				env.Logger.Info("subscription refused",
					zap.Int64("user_id", userID), zap.String("channel", ch.Name), zap.Error(err))
				c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			writeAPIError(c, err)
			return
		}

		token, exp, err := env.Tokens.SubscriptionToken(userID, ch.Name)
		if err != nil {
			writeAPIError(c, err)
			return
		}
		env.Metrics.TokensIssued.WithLabelValues(metrics.TokenSubscription).Inc()
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp.Unix()})
	}
}

// authorizeChannel returns nil when userID may subscribe to ch.
// Missing rooms and beers are reported as ErrNotFound so callers can refuse without leaking existence.
func authorizeChannel(ctx context.Context, env *Env, userID int64, ch broadcast.Channel) error {
	switch ch.Kind {
	case broadcast.KindRoomNextBeer, broadcast.KindRoomBeers:
		_, err := models.GetMembership(ctx, env.DB, ch.RoomID, userID)
		return err
	case broadcast.KindBeerVotes:
		beer, err := models.GetBeer(ctx, env.DB, ch.BeerID)
		if err != nil {
			return err
		}
		_, err = models.GetMembership(ctx, env.DB, beer.RoomID, userID)
		return err
	case broadcast.KindPersonal:
		if ch.UserID != userID {
			return errChannelForbidden
		}
		return nil
	default:
		return errChannelForbidden
	}
}
