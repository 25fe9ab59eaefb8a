package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

// StatusFor maps an error to the HTTP status the API reports for it.
func StatusFor(err error) int {
	switch CodeOf(err) {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeSlotTaken, CodeConflict:
		return http.StatusConflict
	case CodeInvalidTransition:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	}
	if IsStore(err) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// FromError writes err using the business taxonomy. Business messages are
// surfaced verbatim; anything else is reported without internal detail.
func FromError(c *gin.Context, err error) {
	status := StatusFor(err)

	var be BusinessError
	if errors.As(err, &be) {
		msg := be.Message
		if msg == "" {
			msg = be.Code
		}
		Write(c, status, be.Code, msg)
		return
	}

	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
		Write(c, status, "store_unavailable", "Storage temporarily unavailable, retry later.")
		return
	}

	Internal(c, "internal_error", "Unexpected error.")
}
