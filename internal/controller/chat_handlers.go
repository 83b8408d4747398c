package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/wellness_hub/internal/service"
)

type followRequest struct {
	UserID int64 `json:"user_id"`
}

type requestAction struct {
	RequestID int64 `json:"request_id"`
}

func (r *Router) suggestions(c *gin.Context) {
	list, err := r.conns.Suggestions(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) pending(c *gin.Context) {
	list, err := r.conns.Pending(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) outgoing(c *gin.Context) {
	list, err := r.conns.Outgoing(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) connections(c *gin.Context) {
	list, err := r.conns.Connections(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (r *Router) follow(c *gin.Context) {
	var in followRequest
	if !r.bind(c, &in) {
		return
	}
	if in.UserID <= 0 {
		r.renderError(c, badRequest("user_id is required"))
		return
	}

	res, err := r.conns.Follow(c.Request.Context(), currentUser(c).ID, in.UserID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// requestID разбирает тело {request_id} для accept/reject/cancel
func (r *Router) requestID(c *gin.Context) (int64, bool) {
	var in requestAction
	if !r.bind(c, &in) {
		return 0, false
	}
	if in.RequestID <= 0 {
		r.renderError(c, badRequest("request_id is required"))
		return 0, false
	}
	return in.RequestID, true
}

func (r *Router) accept(c *gin.Context) {
	id, ok := r.requestID(c)
	if !ok {
		return
	}

	conn, err := r.conns.Accept(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (r *Router) reject(c *gin.Context) {
	id, ok := r.requestID(c)
	if !ok {
		return
	}

	if err := r.conns.Reject(c.Request.Context(), currentUser(c).ID, id); err != nil {
		r.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) cancel(c *gin.Context) {
	id, ok := r.requestID(c)
	if !ok {
		return
	}

	if err := r.conns.Cancel(c.Request.Context(), currentUser(c).ID, id); err != nil {
		r.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) unfollow(c *gin.Context) {
	partnerID, ok := r.pathID(c, "user_id")
	if !ok {
		return
	}

	if err := r.conns.Unfollow(c.Request.Context(), currentUser(c).ID, partnerID); err != nil {
		r.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) send(c *gin.Context) {
	var in service.SendInput
	if !r.bind(c, &in) {
		return
	}

	msg, err := r.chat.Send(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (r *Router) history(c *gin.Context) {
	partnerID, ok := r.pathID(c, "partner_id")
	if !ok {
		return
	}
	afterSeq, ok := r.queryInt(c, "after_seq", 0)
	if !ok {
		return
	}
	limit, ok := r.queryInt(c, "limit", 0)
	if !ok {
		return
	}

	list, err := r.chat.History(c.Request.Context(), currentUser(c).ID, partnerID, afterSeq, int(limit))
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
