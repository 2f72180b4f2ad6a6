package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playbud/booking/internal/domain"
)

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindPermission:
		return http.StatusForbidden
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status for err's kind. Unclassified errors
// never leak their text.
func writeError(ctx *gin.Context, err error) {
	status := statusFor(err)
	message := domain.Reason(err)
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
