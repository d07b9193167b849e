package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/antoniostano/ami/internal/brain"
	"github.com/antoniostano/ami/internal/chat"
	"github.com/antoniostano/ami/internal/config"
	"github.com/antoniostano/ami/internal/httpapi"
	"github.com/antoniostano/ami/internal/identity"
	"github.com/antoniostano/ami/internal/observability"
	"github.com/antoniostano/ami/internal/transcript"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := transcript.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("transcript store init failed: %v", err)
	}
	defer store.Close()

	adapter, err := brain.NewAdapter(brain.Config{
		Mode:    cfg.BrainAdapterMode,
		HTTPURL: cfg.BrainHTTPURL,
	})
	if err != nil {
		log.Fatalf("brain adapter init failed: %v", err)
	}

	resolver := identity.NewResolver(store, identity.Defaults{
		OwnerID:  cfg.DefaultOwnerID,
		Username: cfg.DefaultOwnerName,
		Email:    cfg.DefaultOwnerEmail,
	})

	convo := chat.NewContext(cfg.SystemPrompt)
	orchestrator := chat.NewOrchestrator(store, resolver, adapter, convo, metrics, cfg.StoreTimeout)

	if err := orchestrator.EnsureSystemTurn(ctx); err != nil {
		log.Fatalf("system turn init failed: %v", err)
	}
	if cfg.RestoreToday {
		restored, err := orchestrator.RestoreToday(ctx)
		if err != nil {
			log.Printf("restore today's history failed: %v", err)
		} else if restored > 0 {
			log.Printf("restored %d turns from today's transcript", restored)
		}
	}

	api := httpapi.New(cfg, orchestrator, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
