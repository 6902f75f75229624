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

	"github.com/zhouzirui/travel-tavern/backend/api"
	"github.com/zhouzirui/travel-tavern/backend/internal/config"
	"github.com/zhouzirui/travel-tavern/backend/internal/handler"
	"github.com/zhouzirui/travel-tavern/backend/internal/middleware"
	"github.com/zhouzirui/travel-tavern/backend/internal/model/traveler"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/ai"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/chat"
	"github.com/zhouzirui/travel-tavern/backend/internal/service/travel"
	"github.com/zhouzirui/travel-tavern/backend/internal/store"
	"github.com/zhouzirui/travel-tavern/backend/web"
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

	// Traveler profiles
	travelers, err := traveler.LoadCSV(cfg.Traveler.CSVPath)
	if err != nil {
		log.Printf("warning: failed to load traveler profiles from %s: %v", cfg.Traveler.CSVPath, err)
		log.Println("continuing with generic replies only")
		travelers = traveler.NewMemoryStore(nil)
	} else {
		log.Printf("loaded %d traveler profiles from %s", len(travelers.List()), cfg.Traveler.CSVPath)
	}

	// Transcript store and chat service
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store.Driver, err)
	}
	defer backend.Close()
	chatService := chat.NewService(backend)

	// Initialize AI service
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check the model provider environment variables")
		} else {
			log.Printf("AI service initialized with provider=%s", cfg.AI.Provider)
		}
	} else {
		log.Printf("%s credentials not configured, skipping AI initialization", cfg.AI.Provider)
	}

	concierge := travel.New(aiService, chatService, travelers)

	validator, err := middleware.NewOpenAPIValidator(ctx, api.OpenAPI)
	if err != nil {
		log.Fatalf("failed to load OpenAPI document: %v", err)
	}

	router := handler.NewRouter(ctx, handler.Deps{
		Server:     cfg.Server,
		Concierge:  concierge,
		Chat:       chatService,
		Travelers:  travelers,
		Assets:     web.Assets,
		OpenAPI:    validator,
		OpenAPIDoc: api.OpenAPI,
	})

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

	log.Printf("travel assistant listening on %s", addr)
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
