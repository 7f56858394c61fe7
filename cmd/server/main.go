package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/amitbasuri/taskrunner/db"
	"github.com/amitbasuri/taskrunner/internal/api"
	"github.com/amitbasuri/taskrunner/internal/config"
	"github.com/amitbasuri/taskrunner/internal/storage/postgres"

	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	_ = godotenv.Load()

	var env config.Server
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal("cannot load env:", err)
	}

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	slog.Info("starting task scheduler API server")

	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		log.Fatal("failed to load migrations:", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, env.Database.ToMigrationUri())
	if err != nil {
		log.Fatal("failed to create migrate instance:", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal("failed to run migrations:", err)
	}
	slog.Info("migrations ran successfully")

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
	apiHandler := api.NewHandler(store)

	r := gin.Default()
	apiHandler.RegisterRoutes(r)

	r.GET("/readiness", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/liveness", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
	})

	srv := &http.Server{
		Addr:    ":" + env.ServerPort,
		Handler: r,
	}

	go func() {
		slog.Info("HTTP server listening", "port", env.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown:", err)
	}

	slog.Info("API server exited gracefully")
}
