package main

import (
	"context"
	"os"

	"PatientRegistry/config"
	"PatientRegistry/config/db"
	"PatientRegistry/config/logger"
	"PatientRegistry/jobs"
	"PatientRegistry/middleware"
	"PatientRegistry/migrations"
	"PatientRegistry/routes"
	"PatientRegistry/server"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	startServer = server.Start
	isTest      = false
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "patient-registry",
		Short:        "Patient registration API server",
		SilenceUsage: true,
		RunE:         func(*cobra.Command, []string) error { return run() },
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (default)",
		RunE:  func(*cobra.Command, []string) error { return run() },
	})
	root.AddCommand(seedAdminCmd())
	return root
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return startServer(serverOptions(cfg))
}

func serverOptions(cfg *config.Config) server.Options {
	defaultopts := server.GetDefaultOptions()

	var a *app
	getApp := func(ctx context.Context) (*app, error) {
		if a != nil {
			return a, nil
		}
		built, err := newApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a = built
		return a, nil
	}

	return server.Options{
		LogLevel:  cfg.LogLevel,
		LogFormat: cfg.LogFormat,

		MongoEnabled: cfg.StoreDriver == "mongo",
		MongoURI:     cfg.MongoURI,
		MongoDB:      cfg.MongoDB,

		CacheEnabled:  cfg.RedisAddr != "",
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		CacheTTL:      cfg.CacheTTL,

		MigrationEnabled: !isTest,
		MigrationHandler: func(ctx context.Context) error {
			if cfg.StoreDriver == "mongo" {
				if err := migrations.RunAll(ctx, db.DB); err != nil {
					return err
				}
			}
			a, err := getApp(ctx)
			if err != nil {
				return err
			}
			return seedAdmin(ctx, a.auth, cfg)
		},

		JobsEnabled: !isTest,
		JobsHandler: func() (func(), error) {
			a, err := getApp(context.Background())
			if err != nil {
				return nil, err
			}
			c, err := jobs.StartScheduler(cfg.ResetSweepSchedule, a.auth)
			if err != nil {
				return nil, err
			}
			return func() { <-c.Stop().Done() }, nil
		},

		WebServerEnabled: defaultopts.WebServerEnabled,
		WebServerPort:    cfg.Port,
		WebServerPreHandler: func(r *gin.Engine) {
			a, err := getApp(context.Background())
			if err != nil {
				zap.L().Fatal("wiring services failed", zap.Error(err))
			}
			r.Use(middleware.Metrics(a.metrics))
			routes.Routes(r, a.handler, routes.Options{
				BasePath: cfg.BasePath,
				RateLimit: middleware.RateLimitConfig{
					RequestsPerSecond: cfg.RateLimitRPS,
					BurstSize:         cfg.RateLimitBurst,
				},
				Metrics: a.metrics.Handler(),
			})
		},
		CORSOrigins:     cfg.CORSOrigins,
		ShowErrorDetail: !cfg.IsProduction(),
		ReleaseMode:     cfg.IsProduction(),
		ShutdownTimeout: defaultopts.ShutdownTimeout,
	}
}

func seedAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account if it does not exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if name != "" {
				cfg.AdminName = name
			}
			if email != "" {
				cfg.AdminEmail = email
			}
			if password != "" {
				cfg.AdminPassword = password
			}

			flush, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer flush()

			ctx := cmd.Context()
			if cfg.StoreDriver == "mongo" {
				if _, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
					return err
				}
				defer db.Disconnect(context.Background())
			} else {
				zap.L().Warn("STORE_DRIVER is not mongo, the admin only lives for this process")
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			if cfg.AdminEmail == "" {
				return cmd.Usage()
			}
			return seedAdmin(ctx, a.auth, cfg)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "admin name (default ADMIN_NAME)")
	cmd.Flags().StringVar(&email, "email", "", "admin email (default ADMIN_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default ADMIN_PASSWORD)")
	return cmd
}
