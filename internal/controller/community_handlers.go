package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/wellness_hub/internal/service"
)

func (r *Router) createPost(c *gin.Context) {
	var in service.PostInput
	if !r.bind(c, &in) {
		return
	}

	post, err := r.community.CreatePost(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (r *Router) listPosts(c *gin.Context) {
	limit, ok := r.queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := r.queryInt(c, "offset", 0)
	if !ok {
		return
	}

	posts, err := r.community.ListPosts(c.Request.Context(), currentUser(c).ID, int(limit), int(offset))
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (r *Router) getPost(c *gin.Context) {
	id, ok := r.pathID(c, "id")
	if !ok {
		return
	}

	post, err := r.community.GetPost(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (r *Router) answer(c *gin.Context) {
	postID, ok := r.pathID(c, "id")
	if !ok {
		return
	}
	var in service.AnswerInput
	if !r.bind(c, &in) {
		return
	}

	answer, err := r.community.Answer(c.Request.Context(), currentUser(c).ID, postID, in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, answer)
}

func (r *Router) acceptAnswer(c *gin.Context) {
	answerID, ok := r.pathID(c, "id")
	if !ok {
		return
	}

	answer, err := r.community.AcceptAnswer(c.Request.Context(), currentUser(c).ID, answerID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}
