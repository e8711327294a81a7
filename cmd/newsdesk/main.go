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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsdesk/internal/config"
	"newsdesk/internal/server"
	"newsdesk/internal/store"
	"newsdesk/internal/worker"
)

var (
	configPath string
	addr       string
	dataDir    string
	redisAddr  string
	inMemory   bool
)

var rootCmd = &cobra.Command{
	Use:          "newsdesk",
	Short:        "newsdesk - A multi-store news publishing API",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect the stores and start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		reg, err := store.ConnectAll(ctx, cfg.Storage, logger)
		if err != nil {
			logger.Error("Failed to connect stores", zap.Error(err))
			return err
		}
		defer reg.Close()

		repos, err := server.NewRepositories(reg)
		if err != nil {
			return err
		}

		// Redis may have been flushed while Badger kept its documents.
		if news, ok := repos.News.(*store.NewsRepo); ok {
			n, err := news.Reindex(ctx)
			if err != nil {
				logger.Error("Failed to rebuild news index", zap.Error(err))
				return err
			}
			logger.Info("News index rebuilt", zap.Int("articles", n))
		}

		w := worker.NewWorker(reg, cfg.Storage.GCInterval, logger)
		go w.Start(ctx)

		srv := server.NewServer(cfg, repos, logger)
		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("Web server failed", zap.Error(err))
				return err
			}
		case <-ctx.Done():
			logger.Info("Shutting down...")
		}

		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown failed", zap.Error(err))
		}
		logger.Info("Goodbye!")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that every store can be reached, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		reg, err := store.ConnectAll(ctx, cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer reg.Close()

		for _, name := range reg.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s ok\n", name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s ok (%s)\n", "index", cfg.Storage.RedisAddr)
		return nil
	},
}

// setup loads the configuration, applies flag overrides and builds the
// logger it asks for.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = dataDir
	}
	if flags.Changed("redis") {
		cfg.Storage.RedisAddr = redisAddr
	}
	if flags.Changed("in-memory") {
		cfg.Storage.InMemory = inMemory
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc, err := loggerConfig(cfg)
	if err != nil {
		return nil, err
	}
	return zc.Build()
}

// loggerConfig picks zap's production or development preset by environment.
// logging.format only overrides the preset's encoding when set.
func loggerConfig(cfg *config.Config) (zap.Config, error) {
	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return zap.Config{}, fmt.Errorf("invalid logging.level %q: %w", cfg.Logging.Level, err)
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.Production() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	if cfg.Logging.Format != "" {
		zc.Encoding = cfg.Logging.Format
	}
	return zc, nil
}

func main() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&addr, "addr", "", "HTTP listen address")
	flags.StringVar(&dataDir, "data-dir", "", "Directory holding the Badger stores")
	flags.StringVar(&redisAddr, "redis", "", "Redis address for the news index")
	flags.BoolVar(&inMemory, "in-memory", false, "Keep all stores in memory")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
