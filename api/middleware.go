package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gcbaptista/imagination-concordance/services"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
	sessionIDKey    = "session_id"

	// SessionCookieName is the cookie carrying the browser session ID
	SessionCookieName = "imagination_session"
)

// RequestSizeLimitMiddleware limits the size of request bodies to prevent memory exhaustion
func RequestSizeLimitMiddleware(maxSize int64) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		// Limit request body size
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	})
}

// CORSMiddleware adds CORS headers for cross-origin requests
func CORSMiddleware() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
}

// RequestIDMiddleware tags every request with an ID, reusing the caller's
// X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// SessionMiddleware attaches the browser session, issuing a new one when the
// cookie is missing or names a session that has expired. Only the page uses
// it, so sessions are opened by loading the page and nowhere else.
func SessionMiddleware(sessions services.SessionTracker, ttl time.Duration) gin.HandlerFunc {
	maxAge := int(ttl.Seconds())
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(SessionCookieName)
		id, created := sessions.Ensure(cookie)
		if created {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, id, maxAge, "/", "", c.Request.TLS != nil, true)
		}
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

// RequireSessionMiddleware admits only requests carrying the cookie of a live
// session. It never opens sessions.
func RequireSessionMiddleware(sessions services.SessionTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(SessionCookieName)
		if err != nil || cookie == "" {
			SendSessionRequiredError(c, "No session. Load the search page first.")
			c.Abort()
			return
		}
		if _, err := sessions.Get(cookie); err != nil {
			SendSessionRequiredError(c, "Your session has expired. Reload the page to search again.")
			c.Abort()
			return
		}
		c.Set(sessionIDKey, cookie)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
