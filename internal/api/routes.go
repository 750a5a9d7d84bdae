package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/telvoice/bridge/internal/bridge"
	"github.com/telvoice/bridge/internal/config"
	"github.com/telvoice/bridge/internal/twiml"
)

// InitRoutes registers all HTTP routes on the echo instance. Anything not
// matching one of these paths is rejected by echo before a session exists.
func InitRoutes(e *echo.Echo, cfg *config.Config, handler *bridge.Handler, logger *zap.Logger) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "telephony bridge is running")
	})

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	// Telephony webhook: answers with the call-control document that
	// connects the call to the media-stream endpoint below.
	e.GET("/voice", func(c echo.Context) error {
		return voiceDocument(c, cfg, logger)
	})

	// Media-stream endpoint, one session per accepted upgrade.
	e.GET("/media", handler.HandleMediaStream)
}

func voiceDocument(c echo.Context, cfg *config.Config, logger *zap.Logger) error {
	host := cfg.Server.PublicHost
	if host == "" {
		host = c.Request().Host
	}
	prompt := c.QueryParam("prompt")
	loopback := c.QueryParam("loop") == "1"

	doc := twiml.ConnectStream(host, prompt, loopback)
	logger.Info("serving call-control document",
		zap.String("host", host),
		zap.Bool("loopback", loopback))
	return c.Blob(http.StatusOK, "application/xml", []byte(doc))
}
