package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/wellness_hub/internal/chart"
	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/service"
)

// ============ Оценки ============

func (r *Router) uploadGrades(c *gin.Context) {
	var in service.UploadGradesInput
	if !r.bind(c, &in) {
		return
	}

	grades, err := r.grades.Upload(c.Request.Context(), currentUser(c), in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploaded": len(grades), "grades": grades})
}

func (r *Router) teacherGrades(c *gin.Context) {
	grades, err := r.grades.TeacherGrades(c.Request.Context(), currentUser(c))
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, grades)
}

func (r *Router) studentGrades(c *gin.Context) {
	grades, err := r.grades.StudentGrades(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, grades)
}

// ============ Настроение ============

func (r *Router) logMood(c *gin.Context) {
	var in service.MoodInput
	if !r.bind(c, &in) {
		return
	}

	entry, err := r.wellness.LogMood(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (r *Router) moodHistory(c *gin.Context) {
	days, ok := r.queryInt(c, "days", 0)
	if !ok {
		return
	}

	hist, err := r.wellness.History(c.Request.Context(), currentUser(c).ID, int(days))
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// moodChart отдаёт PNG график за тот же период, что и moodHistory
func (r *Router) moodChart(c *gin.Context) {
	days, ok := r.queryInt(c, "days", service.DefaultMoodDays)
	if !ok {
		return
	}
	if days == 0 {
		days = service.DefaultMoodDays
	}

	hist, err := r.wellness.History(c.Request.Context(), currentUser(c).ID, int(days))
	if err != nil {
		r.renderError(c, err)
		return
	}

	img, err := chart.RenderMood(hist, int(days), time.Now())
	if err != nil {
		r.renderError(c, errs.Wrap(errs.KindInternal, err, "render mood chart"))
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}

// ============ Группы ============

type addMemberRequest struct {
	UserID int64 `json:"user_id"`
}

func (r *Router) createGroup(c *gin.Context) {
	var in service.GroupInput
	if !r.bind(c, &in) {
		return
	}

	group, err := r.groups.Create(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (r *Router) listGroups(c *gin.Context) {
	groups, err := r.groups.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (r *Router) groupMembers(c *gin.Context) {
	groupID, ok := r.pathID(c, "id")
	if !ok {
		return
	}

	members, err := r.groups.Members(c.Request.Context(), currentUser(c).ID, groupID)
	if err != nil {
		r.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func (r *Router) addGroupMember(c *gin.Context) {
	groupID, ok := r.pathID(c, "id")
	if !ok {
		return
	}
	var in addMemberRequest
	if !r.bind(c, &in) {
		return
	}
	if in.UserID <= 0 {
		r.renderError(c, badRequest("user_id is required"))
		return
	}

	if err := r.groups.AddMember(c.Request.Context(), currentUser(c).ID, groupID, in.UserID); err != nil {
		r.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) leaveGroup(c *gin.Context) {
	groupID, ok := r.pathID(c, "id")
	if !ok {
		return
	}

	if err := r.groups.Leave(c.Request.Context(), currentUser(c).ID, groupID); err != nil {
		r.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
