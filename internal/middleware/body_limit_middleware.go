package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
)

// BodyLimit caps the request body at maxBytes. A declared length over the cap
// is refused before reading; an undeclared one fails on the read that crosses
// it and handlers see *http.MaxBytesError.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			apperrors.RespondWithDetails(c, http.StatusRequestEntityTooLarge, apperrors.ValidationPayloadTooLarge,
				fmt.Sprintf("Request body must be %d bytes or smaller", maxBytes),
				map[string]int64{"max_bytes": maxBytes})
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
