package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Gateway принимает WebSocket подключения. Аутентификация идёт первым кадром join.
type Gateway struct {
	hub      *Hub
	auth     Authenticator
	chat     MessageSender
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewGateway(hub *Hub, auth Authenticator, chat MessageSender, logger *zap.Logger) *Gateway {
	return &Gateway{
		hub:    hub,
		auth:   auth,
		chat:   chat,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// мобильный клиент не присылает Origin, токен проверяется в join
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeWS обработчик GET /ws
func (g *Gateway) ServeWS(c *gin.Context) {
	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		g.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(g.hub, conn, g.auth, g.chat, g.logger)
	client.Start()
}
