package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexora.org/internal/auth"
	"lexora.org/internal/catalog"
	"lexora.org/internal/httpapi"
	"lexora.org/internal/obs"
	"lexora.org/internal/playback"
)

var (
	version = "0.3.1"
	commit  = "none" // set via -ldflags at build time
)

func main() {
	// Инициализация observability (регистрация метрик, JSON-логгер и т.п.)
	obs.Init()
	obs.InitBuildInfo(version, commit)

	authSecret := os.Getenv("LEXORA_AUTH_SECRET")
	playbackSecret := os.Getenv("LEXORA_PLAYBACK_SECRET")
	if playbackSecret == "" {
		// Single-secret deployments sign sessions and playback tokens alike.
		playbackSecret = authSecret
	}
	mediaRoot := os.Getenv("LEXORA_MEDIA_ROOT")
	if mediaRoot == "" {
		log.Fatal("LEXORA_MEDIA_ROOT is required")
	}

	dsn := os.Getenv("LEXORA_PG_DSN")
	if dsn == "" {
		log.Fatal("LEXORA_PG_DSN is required")
	}
	store, err := catalog.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db := store.DB()

	authOpts := []auth.ServiceOption{}
	if v := os.Getenv("LEXORA_SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("parse LEXORA_SESSION_TTL: %v", err)
		}
		authOpts = append(authOpts, auth.WithSessionTTL(ttl))
	}
	authSvc, err := auth.NewService(auth.NewPGUserStore(db), authSecret, "lexora-api", authOpts...)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	codecOpts := []playback.CodecOption{}
	if v := os.Getenv("LEXORA_PLAYBACK_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("parse LEXORA_PLAYBACK_TTL: %v", err)
		}
		codecOpts = append(codecOpts, playback.WithTTL(ttl))
	}
	codec, err := playback.NewCodec(playbackSecret, "lexora-api", codecOpts...)
	if err != nil {
		log.Fatalf("playback codec: %v", err)
	}

	// HTTP API
	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, authSvc, store, codec, mediaRoot)

	addr := os.Getenv("LEXORA_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(), // уже обёрнут метриками в httpapi
		ReadHeaderTimeout: 15 * time.Second,
		// No WriteTimeout: a range response over a slow link legitimately
		// outlives any fixed deadline.
		IdleTimeout: 60 * time.Second,
	}

	log.Printf("Starting lexora-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}
