package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionIDKey    = "session_id"
	SessionIDHeader = "X-Session-ID"
)

// maxSessionIDLength bounds client-chosen ids used as store keys.
const maxSessionIDLength = 128

// SessionMiddleware identifies the comparison session. A missing or
// oversized X-Session-ID is replaced by a fresh UUID, echoed back so the
// client can reuse it.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionIDHeader)
		if sessionID == "" || len(sessionID) > maxSessionIDLength {
			sessionID = uuid.NewString()
		}
		c.Set(SessionIDKey, sessionID)
		c.Header(SessionIDHeader, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session id set by SessionMiddleware.
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
