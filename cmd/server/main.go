package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/tocafy/tocafy-server/internal/config"
	"github.com/tocafy/tocafy-server/internal/database"
	"github.com/tocafy/tocafy-server/internal/handler"
	"github.com/tocafy/tocafy-server/internal/logger"
	"github.com/tocafy/tocafy-server/internal/metrics"
	"github.com/tocafy/tocafy-server/internal/middleware"
	"github.com/tocafy/tocafy-server/internal/notify"
	"github.com/tocafy/tocafy-server/internal/queue"
	"github.com/tocafy/tocafy-server/internal/realtime"
	"github.com/tocafy/tocafy-server/internal/repository"
	"github.com/tocafy/tocafy-server/internal/router"
	"github.com/tocafy/tocafy-server/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := openDB(ctx, cfg)
	if err != nil {
		log.Error("database unavailable", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting is per process, search cache and show channels are off")
	} else {
		defer rdb.Close()
	}

	hub := realtime.NewHub(log)
	go hub.Run(ctx)

	sinks := []notify.Sink{
		{Name: "websocket", Publisher: hub},
		{Name: "redis", Publisher: notify.NewRedisPublisher(rdb)},
	}
	if cfg.AMQPEnabled {
		amqpPub := notify.NewAMQPPublisher(cfg.RabbitMQURL)
		defer amqpPub.Close()
		sinks = append(sinks, notify.Sink{Name: "amqp", Publisher: amqpPub})
		activity := queue.NewActivityLog(cfg.ActivityDir)
		go func() {
			if err := queue.StartChangeConsumer(ctx, cfg.RabbitMQURL, activity, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("change consumer stopped", "error", err)
			}
		}()
	}

	svcs := service.New(service.Options{
		DB:        db,
		Dialect:   dialect,
		Publisher: notify.NewFanout(sinks...),
		Logger:    log,
		OpTimeout: cfg.OpTimeout,
	})
	metrics.Register()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: []string{cfg.PublicOrigin}}))

	router.RegisterRoutes(e, db)
	router.RegisterAudience(e, handler.NewAudienceHandler(svcs, hub, cfg.PublicOrigin, log),
		rdb, config.LoadRateLimitConfig(), config.LoadCacheConfig(), log)
	router.RegisterArtist(e, handler.NewArtistHandler(svcs, hub, cfg.PublicOrigin, log), cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

// openDB connects to the configured database and applies the schema.
func openDB(ctx context.Context, cfg config.Config) (*sql.DB, repository.Dialect, error) {
	var (
		db      *sql.DB
		dialect repository.Dialect
		err     error
	)
	switch cfg.DBDriver {
	case config.DriverSQLite:
		db, err = database.OpenSQLite(cfg.SQLitePath)
		dialect = repository.SQLite
	default:
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		dialect = repository.MySQL
	}
	if err != nil {
		return nil, dialect, err
	}
	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		_ = db.Close()
		return nil, dialect, err
	}
	return db, dialect, nil
}
