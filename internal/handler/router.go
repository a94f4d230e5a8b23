package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/logger"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r *gin.Engine)
}

// NewEngine builds the gin engine with recovery and request logging and
// mounts every registrar.
func NewEngine(log *logger.Logger, development bool, registrars ...Registrar) *gin.Engine {
	if development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log.Named("http")))

	for _, r := range registrars {
		r.Register(engine)
	}

	return engine
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if path == "/healthz" || path == "/readyz" {
			return
		}

		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
