package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

type apiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func Ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Data:    nil,
	})
}

// FromError writes err with the HTTP status matching its code.
func FromError(c *gin.Context, err error) {
	Error(c, statusOf(err), err.Error())
}

func statusOf(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidParameter, errors.ErrCodeMissingParameter, errors.ErrCodeUnsupportedStrategy:
		return http.StatusBadRequest
	case errors.ErrCodeDataNotFound:
		return http.StatusNotFound
	case errors.ErrCodeTickInProgress:
		return http.StatusConflict
	case errors.ErrCodeDataSourceUnavailable, errors.ErrCodeQueryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
