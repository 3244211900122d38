package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/fra-claims/internal/common"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps err onto a status and writes the error envelope.
// Internal failures never leak their cause to the client.
func RespondError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	msg := "internal error"
	if status < http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message:   msg,
			Code:      common.ErrorCode(err),
			RequestID: common.RequestIDFromContext(c.Request.Context()),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
