package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/metrics"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

const userKey = "wellness_user"

// requestLogger логирует каждый запрос и пишет HTTP метрики
func (r *Router) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		metrics.ObserveHTTP(c.Request.Method, route, status, elapsed)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
		}
		if u := currentUser(c); u != nil {
			fields = append(fields, zap.Int64("user_id", u.ID))
		}

		if status >= http.StatusInternalServerError {
			r.logger.Warn("HTTP request", fields...)
			return
		}
		r.logger.Debug("HTTP request", fields...)
	}
}

// recovery превращает панику обработчика в 500 с телом ошибки
func (r *Router) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		r.logger.Error("Handler panic",
			zap.String("route", c.FullPath()),
			zap.Any("panic", recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			ErrorBody{Error: ErrorDetail{Kind: errs.KindInternal, Message: "internal error"}})
	})
}

// requireAuth проверяет Bearer токен и кладёт пользователя в контекст
func (r *Router) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
			r.renderError(c, errs.New(errs.KindUnauthorized, "missing bearer token"))
			return
		}

		user, err := r.users.Authenticate(c.Request.Context(), strings.TrimSpace(header[7:]))
		if err != nil {
			r.renderError(c, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// requireTeacher пропускает только учителей
func (r *Router) requireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsTeacher() {
			r.renderError(c, errs.New(errs.KindForbidden, "teacher role required"))
			return
		}
		c.Next()
	}
}

// currentUser пользователь, установленный requireAuth
func currentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}
