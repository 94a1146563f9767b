package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New("card")

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Delete("/api/cards/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/cards/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, float64(3), testutil.ToFloat64(m.requests.WithLabelValues("DELETE", "/api/cards/{id}", "204")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requests))
}

func TestCardEventAndGauge(t *testing.T) {
	m := New("feed")
	m.CardEvent("card-created")
	m.CardEvent("card-created")
	m.CardEvent("card-deleted")
	m.Gauge("sockets", "Connected websocket clients.", func() float64 { return 4 })

	assert.Equal(t, float64(2), testutil.ToFloat64(m.events.WithLabelValues("card-created")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `cardcatalog_feed_card_events_total{type="card-deleted"} 1`))
	assert.True(t, strings.Contains(text, "cardcatalog_feed_sockets 4"))
	assert.True(t, strings.Contains(text, "go_goroutines"))
}
