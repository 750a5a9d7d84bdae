package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/telvoice/bridge/internal/api"
	"github.com/telvoice/bridge/internal/bridge"
	"github.com/telvoice/bridge/internal/config"
	"github.com/telvoice/bridge/internal/logging"
	"github.com/telvoice/bridge/internal/openai"
)

func main() {
	// .env is optional, real deployments set the environment directly.
	godotenv.Load()

	cfg, err := config.Load(os.Getenv("BRIDGE_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	connector := openai.NewConnector(&cfg.OpenAI, logger)
	handler := bridge.NewHandler(connector, logger)
	api.InitRoutes(e, cfg, handler, logger)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("model", cfg.OpenAI.Model))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
