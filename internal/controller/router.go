// Package controller HTTP API поверх gin: маршруты, middleware и обработчики.
package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/service"
)

// Services зависимости контроллера
type Services struct {
	Users       *service.UserService
	Connections *service.ConnectionService
	Chat        *service.ChatService
	Community   *service.CommunityService
	Grades      *service.GradeService
	Wellness    *service.WellnessService
	Groups      *service.GroupService
}

type Router struct {
	users     *service.UserService
	conns     *service.ConnectionService
	chat      *service.ChatService
	community *service.CommunityService
	grades    *service.GradeService
	wellness  *service.WellnessService
	groups    *service.GroupService
	logger    *zap.Logger
}

func NewRouter(svc Services, logger *zap.Logger) *Router {
	return &Router{
		users:     svc.Users,
		conns:     svc.Connections,
		chat:      svc.Chat,
		community: svc.Community,
		grades:    svc.Grades,
		wellness:  svc.Wellness,
		groups:    svc.Groups,
		logger:    logger,
	}
}

// Engine собирает gin.Engine. ws обслуживает GET /ws, может быть nil.
func (r *Router) Engine(ws gin.HandlerFunc) *gin.Engine {
	e := gin.New()
	e.Use(r.recovery(), r.requestLogger())
	e.NoRoute(r.noRoute)

	e.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if ws != nil {
		e.GET("/ws", ws)
	}

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", r.register)
	authGroup.POST("/login", r.login)

	private := api.Group("", r.requireAuth())

	users := private.Group("/users")
	users.GET("/me", r.me)
	users.PUT("/me", r.updateMe)
	users.GET("/:id", r.userByID)

	chat := private.Group("/chat")
	chat.GET("/suggestions", r.suggestions)
	chat.GET("/pending", r.pending)
	chat.GET("/outgoing", r.outgoing)
	chat.GET("/connections", r.connections)
	chat.DELETE("/connections/:user_id", r.unfollow)
	chat.POST("/follow", r.follow)
	chat.POST("/accept", r.accept)
	chat.POST("/reject", r.reject)
	chat.POST("/cancel", r.cancel)
	chat.POST("/send", r.send)
	chat.GET("/messages/:partner_id", r.history)

	community := private.Group("/community")
	community.POST("/posts", r.createPost)
	community.GET("/posts", r.listPosts)
	community.GET("/posts/:id", r.getPost)
	community.POST("/posts/:id/answers", r.answer)
	community.POST("/answers/:id/accept", r.acceptAnswer)

	teacher := private.Group("/teacher", r.requireTeacher())
	teacher.POST("/upload_grades", r.uploadGrades)
	teacher.GET("/grades", r.teacherGrades)

	private.GET("/student/grades", r.studentGrades)

	wellness := private.Group("/wellness")
	wellness.POST("/mood", r.logMood)
	wellness.GET("/mood", r.moodHistory)
	wellness.GET("/mood/chart.png", r.moodChart)

	groups := private.Group("/groups")
	groups.POST("/create", r.createGroup)
	groups.GET("", r.listGroups)
	groups.GET("/:id/members", r.groupMembers)
	groups.POST("/:id/members", r.addGroupMember)
	groups.POST("/:id/leave", r.leaveGroup)

	return e
}

// ============ Разбор запроса ============

func (r *Router) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		r.renderError(c, badRequest("malformed request body"))
		return false
	}
	return true
}

func (r *Router) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		r.renderError(c, badRequest(name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// queryInt читает необязательный целый параметр; пустое значение даёт def
func (r *Router) queryInt(c *gin.Context, name string, def int64) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.renderError(c, badRequest(name+" must be an integer"))
		return 0, false
	}
	return v, true
}
