package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eslsoft/oghmai/internal/adapter/mapping"
	"github.com/eslsoft/oghmai/internal/infrastructure/logging"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// respondError writes err with the status its class maps to. Internal errors
// are logged and replaced by a generic message.
func respondError(c *gin.Context, err error) {
	status := mapping.ToHTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).WithError(err).Error("request failed")
		msg = "internal error"
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: mapping.ToErrorCode(err)}})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: "invalid_argument"}})
}
