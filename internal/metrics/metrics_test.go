package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBroadcast(t *testing.T) {
	m := New()
	m.ObserveBroadcast("beers:room-1", nil)
	m.ObserveBroadcast("beers:beer-2", errors.New("down"))
	m.ObserveBroadcast("rooms:1-next-beer", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts.WithLabelValues("beers", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts.WithLabelValues("beers", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Broadcasts.WithLabelValues("rooms", "ok")))
}

func TestHandler_ExposesCounters(t *testing.T) {
	m := New()
	m.TokensIssued.WithLabelValues(TokenConnection).Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `beers_tokens_issued_total{kind="connection"} 1`)
	assert.Contains(t, string(body), `beers_tokens_issued_total{kind="subscription"} 0`)
}
