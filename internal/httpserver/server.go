package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"telegram-schedule-bot/internal/logger"
	"telegram-schedule-bot/internal/metrics"
)

// Pinger reports whether the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter exposes liveness, readiness and Prometheus endpoints.
func NewRouter(m *metrics.Metrics, db Pinger, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", func(c *gin.Context) {
		if m == nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
		m.Handler().ServeHTTP(c.Writer, c.Request)
	})

	return r
}

func New(addr string, m *metrics.Metrics, db Pinger, log *zap.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(m, db, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
