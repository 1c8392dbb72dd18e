package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/truemediaorg/catbot/metrics"
)

func TestHealthchecker(t *testing.T) {
	healthchecker := NewHealthchecker(8080)
	assert.Equal(t, "0.0.0.0:8080", healthchecker.Server.Addr)

	t.Run("root answers ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		healthchecker.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "purring", rec.Body.String())
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		metrics.StatusesSeen.Inc()
		rec := httptest.NewRecorder()
		healthchecker.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "catbot_statuses_seen_total"))
	})
}
