package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/mirror/backend/internal/config"
	"github.com/zhouzirui/mirror/backend/internal/handler"
	"github.com/zhouzirui/mirror/backend/internal/model/persona"
	"github.com/zhouzirui/mirror/backend/internal/service/ai"
	"github.com/zhouzirui/mirror/backend/internal/service/chat"
	"github.com/zhouzirui/mirror/backend/internal/service/creature"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personas, err := persona.LoadFile(cfg.Creature.PersonaFile)
	if err != nil {
		log.Fatalf("failed to load personas: %v", err)
	}
	personaStore := persona.NewMemoryStore(personas)
	log.Printf("loaded %d persona(s), default=%s", len(personas), personaStore.Default().ID)

	// Initialize AI service
	var generator ai.Generator
	aiService, err := ai.NewFromConfig(ctx, cfg.AI)
	switch {
	case err != nil:
		log.Printf("warning: failed to initialize AI service: %v", err)
		log.Println("continuing without AI functionality, replies fall back to canned lines")
	case aiService == nil:
		log.Println("AI provider not configured, replies come from canned lines")
	default:
		// 只在非 nil 时赋值，避免接口持有 nil 指针
		generator = aiService
		log.Printf("AI service initialized with provider=%s", aiService.Provider())
	}

	creatureService := creature.NewService(generator, creature.Config{
		Timeout:      cfg.AI.Timeout,
		HistoryLimit: cfg.AI.HistoryLimit,
		Divisor:      cfg.Creature.SentimentDivisor,
	})
	chatService := chat.NewService()

	router := handler.NewRouter(personaStore, creatureService, chatService)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Mirror backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
