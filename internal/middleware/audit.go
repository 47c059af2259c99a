package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rahulvs07/complyark-data-shield/pkg/logger"
)

// Audit writes an "audit" log line for every successful mutating request,
// naming the acting user and the resource.
func Audit(fallback *zap.Logger, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		fields := []zap.Field{
			zap.String("resource", resource),
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
			zap.Time("at", start),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.GetHeader("User-Agent")),
		}
		if claims, ok := Claims(c); ok {
			fields = append(fields,
				zap.Int64("user_id", claims.UserID),
				zap.Int64("organisation_id", claims.OrganisationID),
				zap.String("role", string(claims.Role)),
			)
		}
		logger.FromGin(c, fallback).Info("audit", fields...)
	}
}
