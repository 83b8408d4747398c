package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/wellness_hub/internal/service"
)

func (r *Router) register(c *gin.Context) {
	var in service.RegisterInput
	if !r.bind(c, &in) {
		return
	}

	res, err := r.users.Register(c.Request.Context(), in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (r *Router) login(c *gin.Context) {
	var in service.LoginInput
	if !r.bind(c, &in) {
		return
	}

	res, err := r.users.Login(c.Request.Context(), in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (r *Router) updateMe(c *gin.Context) {
	var in service.ProfileInput
	if !r.bind(c, &in) {
		return
	}

	user, err := r.users.UpdateProfile(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (r *Router) userByID(c *gin.Context) {
	id, ok := r.pathID(c, "id")
	if !ok {
		return
	}

	view, err := r.users.GetView(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
