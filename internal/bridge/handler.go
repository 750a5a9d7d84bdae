package bridge

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Maximum message size allowed from either peer. Media frames are small;
// this bounds a misbehaving sender.
const maxMessageSize = 512 * 1024

var upgrader = websocket.Upgrader{
	// Media gateways connect server-to-server without an Origin header.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler accepts media-stream upgrades and runs one Session per connection.
type Handler struct {
	dialer BackendDialer
	logger *zap.Logger
}

func NewHandler(dialer BackendDialer, logger *zap.Logger) *Handler {
	return &Handler{dialer: dialer, logger: logger}
}

// HandleMediaStream finishes the protocol upgrade and hands the connection
// to a new Session. Mode and prompt come from the request query.
func (h *Handler) HandleMediaStream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return err
	}

	mode := ModeBridge
	if c.QueryParam("loop") == "1" {
		mode = ModeLoopback
	}
	sess := NewSession(conn, mode, c.QueryParam("prompt"), h.dialer, h.logger)

	// The request context dies with this handler; the session outlives it.
	go sess.Run(context.Background())
	return nil
}
