package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders = "Authorization, Content-Type, X-Requested-With, X-Request-ID"
	allowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

// New returns CORS middleware. An empty list allows any origin, which is what
// the public intake form needs when it is embedded on organisation sites.
func New(allowedOrigins []string) gin.HandlerFunc {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		originSet[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		header := c.Writer.Header()
		origin := c.GetHeader("Origin")

		switch {
		case origin != "" && allowed(originSet, origin):
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		case origin == "" && len(originSet) == 0:
			header.Set("Access-Control-Allow-Origin", "*")
		}

		header.Add("Vary", "Origin")
		header.Set("Access-Control-Allow-Headers", allowHeaders)
		header.Set("Access-Control-Allow-Methods", allowMethods)
		header.Set("Access-Control-Expose-Headers", "X-Request-ID")
		header.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowed(originSet map[string]struct{}, origin string) bool {
	if len(originSet) == 0 {
		return true
	}
	_, ok := originSet[strings.TrimRight(origin, "/")]
	return ok
}
