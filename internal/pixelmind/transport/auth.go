package transport

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth rejects requests that do not carry "Authorization: Bearer <token>".
// An empty token disables the check. Loopback clients skip the check when
// allowLocal is set. /healthz is always open.
func BearerAuth(token string, allowLocal bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.Request.URL.Path == healthPath {
			c.Next()
			return
		}
		if allowLocal && isLocalRequest(c.Request) {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "missing Authorization header")
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			unauthorized(c, "invalid Authorization header format, expected 'Bearer <token>'")
			return
		}

		if subtle.ConstantTimeCompare([]byte(authHeader[len(prefix):]), []byte(token)) != 1 {
			unauthorized(c, "invalid bearer token")
			return
		}

		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"message": msg,
			"type":    "authentication_error",
		},
	})
}

// isLocalRequest checks if a request originates from a loopback address.
func isLocalRequest(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
