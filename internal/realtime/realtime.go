// Package realtime connects to Centrifugo with tokens obtained from the API.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"beer-tasting-go/internal/apiclient"
	"beer-tasting-go/internal/broadcast"

	"github.com/centrifugal/centrifuge-go"
	"go.uber.org/zap"
)

const websocketPath = "/connection/websocket"

// TokenSource exchanges the stored bearer token for Centrifugo tokens.
type TokenSource interface {
	ConnectionToken(ctx context.Context) (string, error)
	SubscriptionToken(ctx context.Context, channel string) (string, error)
}

type Config struct {
	// APIURL is the API base URL. An https URL selects wss.
	APIURL string
	// WSHost and WSSHost are host[:port] of the Centrifugo server for plain and
	// TLS connections. WSSHost falls back to WSHost, WSHost to the API host.
	WSHost  string
	WSSHost string
	// TokenTimeout bounds each token request made from a library callback.
	TokenTimeout time.Duration
}

type Client struct {
	cfg    Config
	tokens TokenSource
	logger *zap.Logger

	mu     sync.Mutex
	client *centrifuge.Client
}

func New(cfg Config, tokens TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = 10 * time.Second
	}
	return &Client{cfg: cfg, tokens: tokens, logger: logger}
}

// Endpoint is the websocket URL derived from the configuration.
func (c *Client) Endpoint() (string, error) {
	api, err := url.Parse(c.cfg.APIURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	scheme, host := "ws", c.cfg.WSHost
	if api.Scheme == "https" {
		scheme = "wss"
		if c.cfg.WSSHost != "" {
			host = c.cfg.WSSHost
		}
	}
	if host == "" {
		host = api.Host
	}
	if host == "" {
		return "", errors.New("no centrifugo host configured")
	}
	return scheme + "://" + strings.TrimRight(host, "/") + websocketPath, nil
}

// Init creates and connects the underlying client once. Later calls return
// immediately. A non-empty token is used for the first connect; after that the
// client refreshes through ConnectionToken. An unreachable server is not an
// error: the client keeps reconnecting until Close.
func (c *Client) Init(ctx context.Context, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}

	endpoint, err := c.Endpoint()
	if err != nil {
		return err
	}
	client := centrifuge.NewJsonClient(endpoint, centrifuge.Config{
		GetToken: func(centrifuge.ConnectionTokenEvent) (string, error) {
			tctx, cancel := context.WithTimeout(context.Background(), c.cfg.TokenTimeout)
			defer cancel()
			return c.ConnectionToken(tctx)
		},
	})
	client.OnConnected(func(e centrifuge.ConnectedEvent) {
		c.logger.Info("realtime connected", zap.String("client_id", e.ClientID))
	})
	client.OnDisconnected(func(e centrifuge.DisconnectedEvent) {
		c.logger.Info("realtime disconnected", zap.Uint32("code", e.Code), zap.String("reason", e.Reason))
	})
	client.OnError(func(e centrifuge.ErrorEvent) {
		c.logger.Warn("realtime error", zap.Error(e.Error))
	})

	if token != "" {
		client.SetToken(token)
	}
	if err := ctx.Err(); err != nil {
		client.Close()
		return err
	}
	// A dial or token error from Connect has already scheduled a reconnect, so
	// the client is kept. Only a closed client is final.
	if err := client.Connect(); err != nil {
		if errors.Is(err, centrifuge.ErrClientClosed) {
			return fmt.Errorf("connect %s: %w", endpoint, err)
		}
		c.logger.Debug("realtime first connect failed, reconnecting", zap.String("endpoint", endpoint), zap.Error(err))
	}
	c.client = client
	c.logger.Debug("realtime connecting", zap.String("endpoint", endpoint))
	return nil
}

// ConnectionToken fetches a connection token. A 403 becomes centrifuge.ErrUnauthorized,
// which makes the library disconnect for good; any other failure is retried by it.
func (c *Client) ConnectionToken(ctx context.Context) (string, error) {
	token, err := c.tokens.ConnectionToken(ctx)
	if err != nil {
		return "", mapTokenError("connection token", err)
	}
	return token, nil
}

// SubscriptionToken fetches a token for channel with the same error mapping as ConnectionToken.
func (c *Client) SubscriptionToken(ctx context.Context, channel string) (string, error) {
	token, err := c.tokens.SubscriptionToken(ctx, channel)
	if err != nil {
		return "", mapTokenError("subscription token for "+channel, err)
	}
	return token, nil
}

func mapTokenError(what string, err error) error {
	if apiclient.HasStatus(err, http.StatusForbidden) {
		return centrifuge.ErrUnauthorized
	}
	return fmt.Errorf("%s: %w", what, err)
}

// NewSubscription creates a subscription on the connected client. User-limited
// channels are authorized by Centrifugo itself and get no token callback.
func (c *Client) NewSubscription(channel string, cfg centrifuge.SubscriptionConfig) (*centrifuge.Subscription, error) {
	client := c.current()
	if client == nil {
		return nil, errors.New("realtime client not initialized")
	}
	if !broadcast.IsUserLimited(channel) {
		cfg.GetToken = func(e centrifuge.SubscriptionTokenEvent) (string, error) {
			tctx, cancel := context.WithTimeout(context.Background(), c.cfg.TokenTimeout)
			defer cancel()
			return c.SubscriptionToken(tctx, e.Channel)
		}
	}
	return client.NewSubscription(channel, cfg)
}

// RemoveSubscription unsubscribes and forgets sub. A nil sub is ignored.
func (c *Client) RemoveSubscription(sub *centrifuge.Subscription) error {
	client := c.current()
	if sub == nil || client == nil {
		return nil
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", sub.Channel, err)
	}
	return client.RemoveSubscription(sub)
}

// Close disconnects and releases the client. Init may be called again afterwards.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
}

func (c *Client) current() *centrifuge.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

// Centrifuge exposes the underlying client for event registration.
func (c *Client) Centrifuge() *centrifuge.Client {
	return c.current()
}
