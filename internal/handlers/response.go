package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/macrofit/macrofit-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError maps the error taxonomy onto HTTP uniformly: typed errors
// carry their own status and machine code, anything else is a 500.
func RespondAPIError(c *gin.Context, err error) {
	RespondError(c, apierr.StatusOf(err), apierr.CodeOf(err), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
