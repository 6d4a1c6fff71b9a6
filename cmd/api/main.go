package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"culturemark/api/internal/app"
	"culturemark/api/internal/assets"
	"culturemark/api/internal/authpw"
	"culturemark/api/internal/config"
	"culturemark/api/internal/guideline"
	"culturemark/api/internal/search"
	"culturemark/api/internal/session"
	"culturemark/api/internal/store"
	"culturemark/api/internal/suggest"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.GuidelinesDir, 0o755); err != nil {
		log.Fatalf("failed to create guidelines dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	guidelineService := guideline.New(cfg.GuidelinesDir)
	authService := authpw.NewService(dataStore)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
	}

	var sessionStore app.SessionStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for refresh token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		sessionStore = redisStore
	} else {
		log.Printf("Using PostgreSQL for refresh token storage")
		sessionStore = session.NewPostgresStore(dataStore)
	}

	var assetService *assets.Service
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		assetService, err = assets.NewService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
		if err := assetService.EnsureBucket(ctx); err != nil {
			log.Printf("WARNING: ensure bucket failed: %v", err)
		}
	} else {
		log.Printf("Object storage not configured, asset endpoints disabled")
	}

	var suggestService *suggest.Service
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		provider, err := suggest.NewGeminiProvider(cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("gemini client failed: %v", err)
		}
		suggestService = suggest.NewService(provider)
	} else {
		log.Printf("Gemini not configured, suggestions disabled")
	}

	service := app.New(cfg, dataStore, app.Options{
		Sessions:   sessionStore,
		AuthPW:     authService,
		Guidelines: guidelineService,
		Search:     searchService,
		Suggest:    suggestService,
		Assets:     assetService,
	})
	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	go searchService.ReindexAllFromPG(ctx)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("CultureMark API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
