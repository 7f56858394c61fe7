package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/amitbasuri/taskrunner/internal/backoff"
	"github.com/amitbasuri/taskrunner/internal/config"
	"github.com/amitbasuri/taskrunner/internal/cronx"
	"github.com/amitbasuri/taskrunner/internal/engine"
	"github.com/amitbasuri/taskrunner/internal/executor"
	"github.com/amitbasuri/taskrunner/internal/handlers"
	"github.com/amitbasuri/taskrunner/internal/hooks"
	"github.com/amitbasuri/taskrunner/internal/recurrence"
	"github.com/amitbasuri/taskrunner/internal/registry"
	"github.com/amitbasuri/taskrunner/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	var env config.Engine
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal("cannot load env:", err)
	}

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	slog.Info("starting task scheduler worker")

	dbPool, err := pgxpool.New(context.Background(), env.Database.ToDbConnectionUri())
	if err != nil {
		log.Fatal("failed to create database pool:", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatal("failed to ping database:", err)
	}
	slog.Info("database connection established")

	store := postgres.NewStore(dbPool)

	resolver := registry.NewStaticResolver()
	resolver.Register(handlers.SendEmailHandlerName, &handlers.SendEmailHandler{})
	resolver.Register(handlers.RunQueryHandlerName, &handlers.RunQueryHandler{})
	handlerRegistry := registry.New(resolver)

	dispatcher := hooks.New()
	rec := recurrence.New(cronx.New())
	interval := backoff.Exponential(env.BackoffBase())

	exec := executor.New(store, handlerRegistry, dispatcher, interval, rec, slog.Default())

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	workerID := fmt.Sprintf("%s-%d-%d", hostname, os.Getpid(), time.Now().UnixNano())

	control := engine.New(store, exec, dispatcher, engine.Settings{
		Concurrency:   env.Concurrency,
		SleepInterval: env.SleepInterval(),
		ReadAhead:     env.ReadAhead,
		WorkerID:      workerID,
		Logger:        slog.Default(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	control.Start(ctx, false)
	slog.Info("worker started", "concurrency", env.Concurrency, "read_ahead", env.ReadAhead)

	<-ctx.Done()
	slog.Info("worker stopping")

	if err := control.Stop(false); err != nil {
		slog.Error("error during shutdown halt hooks", "error", err)
	}
	slog.Info("worker stopped gracefully")
}
