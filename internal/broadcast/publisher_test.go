package broadcast

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestBroadcaster_Messages(t *testing.T) {
	pub := &recordingPublisher{}
	b := NewBroadcaster(pub, zap.NewNop())
	ctx := context.Background()

	b.NextBeer(ctx, 2, 9)
	b.BeerChanged(ctx, 2, "beer-added")
	b.VoteChanged(ctx, 9, 4, 7, "malty", "ale", "vote-updated")
	b.Notify(ctx, 4, map[string]string{"reason": "joined"})

	require.Len(t, pub.msgs, 4)
	assert.Equal(t, Message{Channel: "rooms:2-next-beer", Payload: map[string]string{"beerId": "9"}}, pub.msgs[0])
	assert.Equal(t, "beers:room-2", pub.msgs[1].Channel)
	assert.Equal(t, "beer-added", pub.msgs[1].Payload["reason"])
	assert.Equal(t, "beers:beer-9", pub.msgs[2].Channel)
	assert.Equal(t, map[string]string{
		"beerId": "9", "userId": "4", "voteValue": "7", "voteNote": "malty", "username": "ale", "reason": "vote-updated",
	}, pub.msgs[2].Payload)
	assert.Equal(t, "personal:#4", pub.msgs[3].Channel)
}

func TestBroadcaster_FailureIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	pub := &recordingPublisher{err: errors.New("centrifugo down")}
	b := NewBroadcaster(pub, zap.New(core))

	var hookErr error
	b.OnSent(func(_ string, err error) { hookErr = err })
	b.BeerChanged(context.Background(), 1, "beer-added")

	assert.EqualError(t, hookErr, "centrifugo down")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "broadcast failed", logs.All()[0].Message)
}

func TestNewBroadcaster_NilPublisher(t *testing.T) {
	b := NewBroadcaster(nil, zap.NewNop())
	b.NextBeer(context.Background(), 1, 1)
}

func TestCentrifugoPublisher_SendsRequest(t *testing.T) {
	var (
		gotBody   string
		gotHeader http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotHeader = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer srv.Close()

	p := NewCentrifugoPublisher(srv.URL+"/api", "api-key")
	// The reply format differs between Centrifugo versions; only the request is asserted.
	_ = p.Publish(context.Background(), Message{Channel: "beers:room-1", Payload: map[string]string{"reason": "beer-added"}})

	assert.Contains(t, gotBody, "beers:room-1")
	auth := gotHeader.Get("Authorization") + gotHeader.Get("X-API-Key")
	assert.True(t, strings.Contains(auth, "api-key"), "api key header missing: %v", gotHeader)
}
