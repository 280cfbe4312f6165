// The gateway serves the conversation over HTTP: REST endpoints for
// submitting turns and a WebSocket pushing state snapshots to watchers.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tottenjordan/zghost/internal/artifact"
	"github.com/tottenjordan/zghost/internal/backend"
	"github.com/tottenjordan/zghost/internal/config"
	"github.com/tottenjordan/zghost/internal/conversation"
	"github.com/tottenjordan/zghost/internal/domain"
	"github.com/tottenjordan/zghost/internal/hub"
	"github.com/tottenjordan/zghost/internal/repository"
	"github.com/tottenjordan/zghost/internal/service"
	v1 "github.com/tottenjordan/zghost/internal/transport/http/v1"
)

func main() {
	cfg := config.Load()

	log.Printf("Starting gateway...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Agent API: %s", cfg.APIBaseURL)
	log.Printf("Database: %s", cfg.DatabaseURL)

	store, err := repository.NewTranscriptStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	client := backend.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)

	// Block until the agent backend answers the health probe.
	prober := backend.NewProber(client, cfg.ProbeInterval, cfg.ProbeAttempts)
	probeCtx, cancelProbe := context.WithCancel(context.Background())
	defer cancelProbe()
	if !prober.Wait(probeCtx) {
		log.Fatalf("Agent backend did not become ready at %s", cfg.APIBaseURL)
	}

	conv := conversation.New(
		domain.Session{UserID: cfg.DefaultUserID, AppName: cfg.DefaultAppName},
		func(session domain.Session, key string) string {
			return artifact.ServerRetrievalURL(cfg.ArtifactBaseURL, session, key)
		},
	)

	h := hub.NewHub()
	go h.Run()

	svc := service.New(cfg, client, conv, store, func(snap conversation.Snapshot) {
		if err := h.BroadcastJSON(snap); err != nil {
			log.Printf("Failed to broadcast snapshot: %v", err)
		}
	})

	handler := v1.NewHandler(svc, func(ctx context.Context) bool {
		return client.CheckHealth(ctx)
	})
	wsServer := v1.NewWSServer(cfg, h, svc)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handler.RegisterRoutes(e)
	wsServer.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Gateway started on port %d", cfg.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Gateway stopped")
}
