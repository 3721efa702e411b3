package navigation

import (
	"context"
	"fmt"

	"beer-tasting-go/internal/apiclient"
	"beer-tasting-go/internal/session"

	"go.uber.org/zap"
)

// AuthGuard sends visitors without a stored token to the login route unless the
// target is one of publicNames. Unmatched paths count as non-public.
func AuthGuard(store session.Store, publicNames ...string) Guard {
	if len(publicNames) == 0 {
		publicNames = DefaultPublic
	}
	public := make(map[string]bool, len(publicNames))
	for _, n := range publicNames {
		public[n] = true
	}
	return func(ctx context.Context, to, _ Location) (*Location, error) {
		token, err := store.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("auth guard: %w", err)
		}
		if token == "" && !public[to.Name] {
			return &Location{Name: RouteLogin}, nil
		}
		return nil, nil
	}
}

// TokenVerifier checks the stored token against the API.
type TokenVerifier interface {
	VerifyToken(ctx context.Context) error
}

// CheckToken validates the stored token once at startup. A 4xx answer means the
// token is dead: it is cleared and the router is sent to /login. Other failures
// are logged and the token is kept.
func (r *Router) CheckToken(ctx context.Context, verifier TokenVerifier) error {
	token, err := r.store.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	err = verifier.VerifyToken(ctx)
	switch {
	case err == nil:
		return nil
	case apiclient.IsClientError(err):
		r.logger.Info("stored token rejected; signing out", zap.Error(err))
		if err := r.store.Clear(ctx); err != nil {
			return err
		}
		_, err := r.Replace(ctx, "/login")
		return err
	default:
		r.logger.Warn("token check failed", zap.Error(err))
		return nil
	}
}
