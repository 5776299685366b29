package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/config"
	"analyzeit.org/internal/gqlapi"
	"analyzeit.org/internal/obs"
	"analyzeit.org/internal/predict"
	"analyzeit.org/internal/store/pg"
)

var version = "1.2.0"

func main() {
	obs.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.DatabaseDSN == "" {
		log.Fatal("ANALYZEIT_PG_DSN is required")
	}
	store, err := pg.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	repos := store.Repositories()
	users := auth.NewPGUserStore(store.DB())
	readyProbe := func(ctx context.Context) error {
		return store.DB().PingContext(ctx)
	}

	tokens, err := auth.NewTokenService(cfg.TokenSecret, auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	predictor := predict.NewClient(cfg.PredictionBaseURL, predict.WithTimeout(cfg.PredictionTimeout))

	api, err := gqlapi.New(gqlapi.Options{
		Auth:         auth.NewService(users, tokens),
		Repos:        repos,
		Predictor:    predictor,
		ReadyProbe:   readyProbe,
		Version:      version,
		RatePerSec:   float64(cfg.RatePerSec),
		RateBurst:    cfg.RateBurst,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		log.Fatalf("api: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	obs.Info("starting analyzeit-api", map[string]any{
		"version": version,
		"addr":    cfg.ListenAddr,
	})

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Info("shutting down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	obs.Info("stopped", nil)
}
