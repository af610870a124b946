package middleware

import (
	"net/http"

	"github.com/backoffice/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit rejects bodies larger than limit bytes. Declared lengths are
// refused up front with 413; chunked bodies fail on read past the limit.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength <= limit {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
			dto.ErrCodeRequestTooLarge,
			"Request body exceeds maximum allowed size",
			c.GetString(RequestIDContextKey),
		))
	}
}
