package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"beer-tasting-go/internal/session"

	"github.com/cenkalti/backoff/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastBackOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     time.Millisecond,
		RandomizationFactor: 0,
		Multiplier:          1,
		MaxInterval:         time.Millisecond,
		MaxElapsedTime:      time.Second,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "password123" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
				return
			}
			_, _ = w.Write([]byte(`{"token":"jwt-1","user":{"id":3,"username":"ale"}}`))
		case "/api/verifyToken":
			if r.Header.Get("Authorization") != "Bearer jwt-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"user_id":3}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store := session.NewMemoryStore("")
	c := New(srv.URL+"/", store)

	_, err := c.Login(ctx, "ale", "nope")
	require.Error(t, err)
	assert.True(t, HasStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "invalid credentials")
	tok, _ := store.Token(ctx)
	assert.Empty(t, tok)

	res, err := c.Login(ctx, "ale", "password123")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.User.ID)
	tok, _ = store.Token(ctx)
	assert.Equal(t, "jwt-1", tok)

	assert.NoError(t, c.VerifyToken(ctx))
}

func TestDoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch r.URL.Path {
		case "/api/rooms":
			if n < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"rooms":[{"id":1,"name":"IPA","code":"abc"}]}`))
		default:
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"not a room member"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, session.NewMemoryStore("tok"), WithBackOff(fastBackOff()))

	rooms, err := c.Rooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "IPA", rooms[0].Name)
	assert.EqualValues(t, 3, calls.Load(), "5xx responses are retried")

	calls.Store(0)
	_, err = c.Room(context.Background(), 9)
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.True(t, HasStatus(err, http.StatusForbidden))
	assert.EqualValues(t, 1, calls.Load(), "4xx responses are not retried")
}

func TestTokenCallsAreSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.URL.Path == "/broadcasting/auth" {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "rooms:1-next-beer", body["channel"])
			_, _ = w.Write([]byte(`{"token":"sub-token"}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, session.NewMemoryStore("tok"), WithBackOff(fastBackOff()))

	_, err := c.ConnectionToken(context.Background())
	assert.True(t, HasStatus(err, http.StatusServiceUnavailable))
	assert.EqualValues(t, 1, calls.Load())

	tok, err := c.SubscriptionToken(context.Background(), "rooms:1-next-beer")
	require.NoError(t, err)
	assert.Equal(t, "sub-token", tok)
}

func TestLogoutClearsTokenEvenOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := session.NewMemoryStore("stale")
	c := New(srv.URL, store)
	err := c.Logout(context.Background())
	assert.True(t, IsClientError(err))
	tok, _ := store.Token(context.Background())
	assert.Empty(t, tok)
}
