package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/movie-booking-api/internal/cache"
	"github.com/iliyamo/movie-booking-api/internal/config"
	"github.com/iliyamo/movie-booking-api/internal/database"
	"github.com/iliyamo/movie-booking-api/internal/handler"
	"github.com/iliyamo/movie-booking-api/internal/lock"
	"github.com/iliyamo/movie-booking-api/internal/middleware"
	"github.com/iliyamo/movie-booking-api/internal/queue"
	"github.com/iliyamo/movie-booking-api/internal/repository"
	"github.com/iliyamo/movie-booking-api/internal/router"
	"github.com/iliyamo/movie-booking-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	logger := log.New("booking-api")
	logger.SetLevel(cfg.Lvl())

	dialect, err := database.ParseDialect(cfg.DBDriver)
	if err != nil {
		logger.Fatal(err)
	}
	db, err := database.Open(database.Options{
		Dialect: dialect,
		DSN:     cfg.DBDSN,
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		Name:    cfg.DBName,
	})
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()
	if cfg.AutoSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureSchema(ctx, db, dialect)
		cancel()
		if err != nil {
			logger.Fatalf("database: ensure schema: %v", err)
		}
	}

	// Redis is optional: without it the lock is process-local and the
	// cache and rate limiter pass requests through.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; caching, rate limiting and distributed locking disabled")
	} else {
		defer rdb.Close()
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.LockBackend == "redis" {
		if rdb != nil {
			locker = lock.NewRedis(rdb, cfg.LockTTL, cfg.LockRetry, logger)
		} else {
			logger.Warn("LOCK_BACKEND=redis but redis is unreachable; using the in-process lock")
		}
	}

	cacheCfg := config.LoadCacheConfig()
	gen := cache.NewGeneration(rdb, cacheCfg.Prefix)

	opts := service.Options{
		Timeout: cfg.StorageTimeout,
		Logger:  logger,
		Cache:   gen,
	}
	if cfg.Events.Enabled {
		opts.Publisher = queue.NewPublisher(cfg.Events.URL, logger)
	}
	svc := service.NewBookingService(repository.NewBookingRepo(db, dialect), locker, opts)

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Infoj(log.JSON{
				"id":      v.RequestID,
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			return nil
		},
	}))

	router.RegisterRoutes(e)
	router.RegisterBookings(e, handler.NewBookingHandler(svc),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(cacheCfg, rdb, gen),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s, db=%s, lock=%s)", addr, cfg.Env, dialect, cfg.LockBackend)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	svc.Wait()
}
