package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PatientRegistry/config/db"
	"PatientRegistry/config/logger"
	"PatientRegistry/config/redis"
	"PatientRegistry/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Options struct {
	// Context stops the server when cancelled. Defaults to SIGINT/SIGTERM.
	Context context.Context

	LogLevel  string
	LogFormat string

	MongoEnabled bool
	MongoURI     string
	MongoDB      string

	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	MigrationEnabled bool
	MigrationHandler func(ctx context.Context) error

	JobsEnabled bool
	// JobsHandler starts the background jobs and returns their stop func.
	JobsHandler func() (stop func(), err error)

	WebServerEnabled    bool
	WebServerPort       int
	WebServerPreHandler func(r *gin.Engine)
	CORSOrigins         []string
	ShowErrorDetail     bool
	ReleaseMode         bool
	ShutdownTimeout     time.Duration
}

func GetDefaultOptions() Options {
	return Options{
		LogLevel:         "info",
		LogFormat:        "console",
		MongoEnabled:     true,
		MongoURI:         "mongodb://localhost:27017",
		MongoDB:          "patient_registration",
		CacheTTL:         10 * time.Minute,
		MigrationEnabled: true,
		JobsEnabled:      true,
		WebServerEnabled: true,
		WebServerPort:    8080,
		CORSOrigins:      []string{"*"},
		ShutdownTimeout:  10 * time.Second,
	}
}

/*
* Install the logger, then connect mongo and redis when enabled
* Migrations run before anything serves traffic
* Jobs start next and are stopped on the way out
* The web server runs until the context ends and drains for ShutdownTimeout
 */
func Start(opts Options) error {
	flush, err := logger.Init(opts.LogLevel, opts.LogFormat)
	if err != nil {
		return err
	}
	defer flush()

	ctx := opts.Context
	if ctx == nil {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
	}

	if opts.MongoEnabled {
		if _, err := db.Connect(ctx, opts.MongoURI, opts.MongoDB); err != nil {
			return err
		}
		defer func() {
			if err := db.Disconnect(context.Background()); err != nil {
				zap.L().Warn("mongo disconnect failed", zap.Error(err))
			}
		}()
	}

	if opts.CacheEnabled && opts.RedisAddr != "" {
		cache, err := redis.Connect(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.CacheTTL)
		if err != nil {
			zap.L().Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			redis.Default = cache
			defer func() {
				redis.Default = redis.NopCache{}
				_ = cache.Close()
			}()
		}
	}

	if opts.MigrationEnabled && opts.MigrationHandler != nil {
		if err := opts.MigrationHandler(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	if opts.JobsEnabled && opts.JobsHandler != nil {
		stopJobs, err := opts.JobsHandler()
		if err != nil {
			return fmt.Errorf("jobs: %w", err)
		}
		if stopJobs != nil {
			defer stopJobs()
		}
	}

	if !opts.WebServerEnabled {
		return nil
	}
	return serve(ctx, opts)
}

func serve(ctx context.Context, opts Options) error {
	if opts.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(zap.L(), opts.ShowErrorDetail))
	r.Use(middleware.RequestLogger(zap.L()))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	if opts.WebServerPreHandler != nil {
		opts.WebServerPreHandler(r)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.WebServerPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("http server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	zap.L().Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Retry-After", "X-RateLimit-Limit"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
