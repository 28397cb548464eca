package middleware

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexalabs/impactgraph/internal/httputil"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = httputil.RequestIDKey

	// ClientRequestIDKey is the gin context key for the caller's own ID.
	ClientRequestIDKey = "client_request_id"

	// RequestIDHeader carries the server-assigned request ID on responses.
	RequestIDHeader = "X-Request-ID"

	// ClientRequestIDHeader echoes the caller's sanitized ID back.
	ClientRequestIDHeader = "X-Client-Request-ID"

	maxClientRequestIDLen = 128
)

// RequestID assigns every request a fresh UUID. A caller-supplied
// X-Request-ID is kept alongside it as a correlation value, sanitized and
// echoed in X-Client-Request-ID, but never becomes the canonical ID.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()

		if clientID := sanitizeClientID(c.GetHeader(RequestIDHeader)); clientID != "" {
			log.WithFields(logrus.Fields{
				"request_id":        id,
				"client_request_id": clientID,
			}).Debug("request.client_id")
			c.Set(ClientRequestIDKey, clientID)
			c.Header(ClientRequestIDHeader, clientID)
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// sanitizeClientID drops non-printable runes and truncates to
// maxClientRequestIDLen bytes.
func sanitizeClientID(raw string) string {
	clean := strings.Map(func(r rune) rune {
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if len(clean) > maxClientRequestIDLen {
		clean = clean[:maxClientRequestIDLen]
		// Avoid splitting a multi-byte rune at the cut.
		clean = strings.ToValidUTF8(clean, "")
	}

	return clean
}
