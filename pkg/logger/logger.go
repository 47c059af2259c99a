package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rahulvs07/complyark-data-shield/pkg/config"
	"github.com/rahulvs07/complyark-data-shield/pkg/middleware/requestid"
)

const ginLoggerKey = "logger"

// Context keys read by GinMiddleware once authentication has run.
const (
	UserIDKey         = "user_id"
	OrganisationIDKey = "organisation_id"
)

// New builds the process logger from config. Production uses zap's
// production preset, anything else the development preset.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	zapCfg.Encoding = "json"
	if cfg.Log.Format == "console" {
		zapCfg.Encoding = "console"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]interface{}{"service": "complyark-api"}

	return zapCfg.Build()
}

// GinMiddleware logs one line per request and stores a request scoped
// logger on the context for handlers to pick up with FromGin.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	if l == nil {
		l = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()

		scoped := l
		if reqID := requestid.Value(c); reqID != "" {
			scoped = l.With(zap.String("request_id", reqID))
		}
		c.Set(ginLoggerKey, scoped)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if userID := c.GetInt64(UserIDKey); userID != 0 {
			fields = append(fields,
				zap.Int64("user_id", userID),
				zap.Int64("organisation_id", c.GetInt64(OrganisationIDKey)),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			scoped.Error("http_request", fields...)
		case status >= 400:
			scoped.Warn("http_request", fields...)
		default:
			scoped.Info("http_request", fields...)
		}
	}
}

// FromGin returns the request scoped logger or fallback when none is set.
func FromGin(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}
