package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"firestore-explorer/internal/di"
	httpadapter "firestore-explorer/internal/explorer/adapter/http"
	"firestore-explorer/internal/explorer/config"
	"firestore-explorer/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	serverCfg, err := config.LoadServerConfig()
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}
	explorerCfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load explorer configuration: %v", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Firestore Explorer - starting application")

	container := di.NewContainer(explorerCfg, appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := container.Initialize(initCtx); err != nil {
		appLogger.Errorf("Failed to initialize explorer: %v", err)
		return
	}
	module := container.GetExplorerModule()
	// The container also checks Redis, so it backs /health.
	module.Handler.Health = container

	app := fiber.New(fiber.Config{
		AppName:      "Firestore Explorer",
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: httpadapter.ErrorHandler(appLogger),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(httpadapter.RequestID(), httpadapter.RequestContext(), httpadapter.Metrics())

	module.RegisterRoutes(app)

	serverAddr := serverCfg.Addr()
	appLogger.Infof("Starting HTTP server on %s (backend=%s)", serverAddr, explorerCfg.StorageBackend)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Errorf("Server failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}

	fmt.Println("Application stopped gracefully.")
}
