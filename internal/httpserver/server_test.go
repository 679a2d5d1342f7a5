package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"telegram-schedule-bot/internal/metrics"
)

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

func init() {
	gin.SetMode(gin.TestMode)
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	r := NewRouter(metrics.New(), nil, zap.NewNop())

	w := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReady(t *testing.T) {
	r := NewRouter(nil, pinger{}, zap.NewNop())
	assert.Equal(t, http.StatusOK, get(r, "/ready").Code)

	r = NewRouter(nil, pinger{err: errors.New("database is locked")}, zap.NewNop())
	w := get(r, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database is locked")
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.ObserveFetch("groups", 120*time.Millisecond, nil)
	r := NewRouter(m, nil, zap.NewNop())

	w := get(r, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "schedule_fetch_duration_seconds")

	assert.Equal(t, http.StatusServiceUnavailable, get(NewRouter(nil, nil, zap.NewNop()), "/metrics").Code)
}
