package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moodica/internal/config"
	"github.com/moodica/internal/db"
	"github.com/moodica/internal/handler"
	"github.com/moodica/internal/logging"
	"github.com/moodica/internal/metrics"
	"github.com/moodica/internal/router"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		port         string
		databaseURL  string
		databaseName string
	)

	cmd := &cobra.Command{
		Use:           "moodica",
		Short:         "Moodica wellness backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			// 命令行参数优先于环境变量
			if cmd.Flags().Changed("port") {
				os.Setenv("PORT", port)
			}
			if cmd.Flags().Changed("database-url") {
				os.Setenv("DATABASE_URL", databaseURL)
			}
			if cmd.Flags().Changed("database-name") {
				os.Setenv("DATABASE_NAME", databaseName)
			}
			return run(cmd.Context(), config.Load())
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (overrides PORT)")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "sqlite database path or DSN (overrides DATABASE_URL)")
	cmd.Flags().StringVar(&databaseName, "database-name", "", "database name (overrides DATABASE_NAME)")
	return cmd
}

func run(ctx context.Context, cfg config.AppConfig) error {
	gin.SetMode(cfg.GinMode)

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()

	// 数据库不可用时以降级模式启动，/ 与 /test 仍可访问
	store, startupErr := db.Open(cfg.DSN(), db.WithLogger(logger), db.WithObserver(m))
	if startupErr != nil {
		logger.Error("database unavailable, starting in degraded mode", zap.Error(startupErr))
		store = db.Unavailable(db.WithLogger(logger), db.WithObserver(m))
	} else {
		logger.Info("database connected", zap.String("dsn", cfg.DSN()))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}()

	api := handler.NewAPI(store, startupErr, os.Getenv, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(cfg, api, m, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
