// Command server runs the QuizBurst API service.
//
// The service exposes quiz authoring and live session endpoints over HTTP.
// Clients synchronize by polling: the session state machine lives entirely
// server-side, advanced by host requests and observed through the status and
// current-question endpoints.
//
// # Backends
//
// The durable store is PostgreSQL when DATABASE_URL is set, otherwise an
// in-memory store suitable for local development. REDIS_ADDR selects the
// shared join-code allocator, RABBITMQ_URL enables session lifecycle events.
//
// # Usage
//
//	JWT_SECRET=dev-secret go run ./cmd/server
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/AnasTanwar5/quiz-burst/api/httpserver"
	"github.com/AnasTanwar5/quiz-burst/auth"
	"github.com/AnasTanwar5/quiz-burst/codes"
	"github.com/AnasTanwar5/quiz-burst/config"
	"github.com/AnasTanwar5/quiz-burst/engine"
	"github.com/AnasTanwar5/quiz-burst/events"
	"github.com/AnasTanwar5/quiz-burst/store"
)

func main() {
	// Local development keeps its secrets in a .env file; absence is fine.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("loading config", "err", err)
		os.Exit(1)
	}

	var st store.Store
	if cfg.DB.URL != "" {
		pg, err := store.NewPostgresStore(cfg.DB.URL)
		if err != nil {
			log.Error("connecting to postgres", "err", err)
			os.Exit(1)
		}
		st = pg
		log.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory store")
	}
	defer st.Close()

	var allocator codes.Allocator
	if cfg.Redis.Addr != "" {
		ra, err := codes.NewRedisAllocator(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Error("connecting to redis", "err", err)
			os.Exit(1)
		}
		defer ra.Close()
		allocator = ra
		log.Info("using redis join-code allocator", "addr", cfg.Redis.Addr)
	} else {
		allocator = codes.NewMemoryAllocator()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.MQ.URL != "" {
		rp, err := events.NewRabbitPublisher(cfg.MQ.URL)
		if err != nil {
			log.Error("connecting to rabbitmq", "err", err)
			os.Exit(1)
		}
		publisher = rp
		log.Info("publishing session lifecycle events")
	}
	defer publisher.Close()

	eng, err := engine.New(&engine.Config{
		Store:  st,
		Codes:  allocator,
		Events: publisher,
		Log:    log,
	})
	if err != nil {
		log.Error("creating engine", "err", err)
		os.Exit(1)
	}

	sweeper, err := engine.NewSweeper(eng, cfg.Sweep.Cron)
	if err != nil {
		log.Error("scheduling expiry sweep", "err", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	handler := engine.NewHandler(eng, auth.NewJWTVerifier(cfg.JWT.Secret))

	srv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               cfg.Server.ListenAddr,
		AllowedOrigins:           cfg.Server.AllowedOrigins,
		EnablePprof:              cfg.Server.EnablePprof,
		Log:                      log,
		DrainDuration:            cfg.Server.DrainDuration,
		GracefulShutdownDuration: cfg.Server.GracefulShutdownDuration,
		ReadTimeout:              cfg.Server.ReadTimeout,
		WriteTimeout:             cfg.Server.WriteTimeout,
		HealthCheck:              st,
	}, handler)
	if err != nil {
		log.Error("creating http server", "err", err)
		os.Exit(1)
	}

	srv.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	srv.Shutdown()
}
