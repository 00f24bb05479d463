package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"learnly/internal/auth"
	"learnly/internal/config"
	"learnly/internal/quiz"
	"learnly/pkg/cache"
	"learnly/pkg/database"
	"learnly/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(&database.Config{
		Driver:     cfg.Database.Driver,
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		DBName:     cfg.Database.Name,
		SSLMode:    cfg.Database.SSLMode,
		SQLitePath: cfg.Database.SQLitePath,
		Logger:     log,
	})
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		log.Error("migrate database", "error", err)
		os.Exit(1)
	}

	sessions, closeSessions := sessionStore(cfg, log)
	defer closeSessions()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	app := newApp(db, tokens, sessions, log)
	go app.hub.Run(ctx)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsMiddleware.Handler(app.router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("server starting", "addr", srv.Addr, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server shutdown gracefully")
}

// sessionStore uses redis when configured and reachable, and falls back to
// process memory otherwise.
func sessionStore(cfg *config.Config, log *slog.Logger) (quiz.SessionStore, func()) {
	if cfg.Redis.Addr == "" {
		log.Info("redis not configured, keeping quiz sessions in memory")
		return quiz.NewMemoryStore(), func() {}
	}

	redisCache := cache.NewRedisCache(cache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(ctx); err != nil {
		log.Warn("redis unreachable, keeping quiz sessions in memory", "addr", cfg.Redis.Addr, "error", err)
		redisCache.Close()
		return quiz.NewMemoryStore(), func() {}
	}
	return quiz.NewRedisStore(redisCache, cfg.Quiz.SessionTTL), func() { redisCache.Close() }
}
