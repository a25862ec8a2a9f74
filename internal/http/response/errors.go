package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/project-radar/internal/domain/aggregates"
)

// StatusOf maps an aggregate error code to its HTTP status. Errors without a
// code are internal.
func StatusOf(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound, domainagg.CodeUnknownProject:
		return http.StatusNotFound
	case domainagg.CodeInvalidCutoff,
		domainagg.CodeAdvanceConflict,
		domainagg.CodeConflict,
		domainagg.CodeInvariantViolation,
		domainagg.CodePreconditionFailed:
		return http.StatusConflict
	case domainagg.CodeSequenceUnavailable, domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err with the status its aggregate code maps to. Internal
// errors are not echoed to the client.
func Error(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusOf(code)
	_ = c.Error(err)
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	if status == http.StatusInternalServerError {
		RespondError(c, status, string(code), errors.New(http.StatusText(status)))
		return
	}
	msg := err.Error()
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) && aggErr.Message != "" {
		msg = aggErr.Message
	}
	RespondError(c, status, string(code), errors.New(msg))
}
