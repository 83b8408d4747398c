package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
)

// ErrorBody тело ответа с ошибкой: {"error": {"kind": "...", "message": "..."}}
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

// renderError отвечает статусом по виду ошибки; внутренние детали в ответ не попадают
func (r *Router) renderError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	status := errs.HTTPStatus(kind)

	msg := errs.Message(err)
	if kind == errs.KindInternal {
		r.logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		msg = "internal error"
	}

	c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{Kind: kind, Message: msg}})
}

func badRequest(msg string) error {
	return errs.New(errs.KindValidation, msg)
}

func (r *Router) noRoute(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorBody{Error: ErrorDetail{Kind: errs.KindNotFound, Message: "route not found"}})
}
