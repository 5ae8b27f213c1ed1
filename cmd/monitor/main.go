package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"xianScore/internal/config"
	"xianScore/internal/feed"
	"xianScore/internal/membership"
	"xianScore/internal/monitor"
	"xianScore/internal/rules"
	"xianScore/internal/storage"
	"xianScore/internal/storage/postgres"
	"xianScore/pkg/metrics"
)

func main() {
	root := &cobra.Command{
		Use:          "monitor",
		Short:        "Real-time Xian SBT scoring monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the monitor",
		RunE:  runMonitor,
	}

	runCmd.Flags().String("ws-url", "", "node websocket URL")
	runCmd.Flags().String("graphql-url", "", "node GraphQL URL")
	runCmd.Flags().String("sbt-contract", "", "SBT contract name")
	runCmd.Flags().String("subscribe-query", "tm.event='Tx'", "feed subscription query")
	runCmd.Flags().String("tx-hash-event", "tx.hash", "envelope event key carrying the tx hash")
	runCmd.Flags().String("tx-payload-path", "value.TxResult.tx", "envelope path to the wire-encoded tx")
	runCmd.Flags().Duration("refresh-interval", 20*time.Second, "membership refresh interval")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN (empty keeps state in-memory)")
	runCmd.Flags().String("metrics-addr", "", "Prometheus listen address (empty disables)")
	runCmd.Flags().Duration("reconnect-backoff", 3*time.Second, "initial reconnect backoff")
	runCmd.Flags().Duration("max-backoff", time.Minute, "reconnect backoff cap")
	runCmd.Flags().Duration("store-timeout", 10*time.Second, "store call timeout")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.WSURL == "" {
		return fmt.Errorf("ws url is required")
	}
	if cfg.GraphQLURL == "" {
		return fmt.Errorf("graphql url is required")
	}
	if cfg.SBTContract == "" {
		return fmt.Errorf("sbt contract is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dedup storage.DedupStore
	var ledger storage.LedgerStore
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		dedup, ledger = store, store
	} else {
		mem := storage.NewMemoryStore()
		dedup, ledger = mem, mem
		logger.Warn("pg dsn not set, ledger state is in-memory only")
	}

	members := membership.NewCache(cfg.GraphQLURL, cfg.SBTContract, cfg.StoreTimeout)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	runner := monitor.NewRunner(monitor.RunConfig{
		Feed: feed.Config{
			URL:            cfg.WSURL,
			SubscribeQuery: cfg.SubscribeQuery,
			HashEvent:      cfg.TxHashEvent,
			TxPath:         cfg.PayloadPath(),
		},
		RefreshInterval:  cfg.RefreshInterval,
		ReconnectBackoff: cfg.ReconnectBackoff,
		MaxBackoff:       cfg.MaxBackoff,
		StoreTimeout:     cfg.StoreTimeout,
	}, rules.DefaultTable(), members, dedup, ledger, logger)

	logger.Info("monitor start",
		zap.String("ws", cfg.WSURL),
		zap.String("graphql", cfg.GraphQLURL),
		zap.String("sbt_contract", cfg.SBTContract),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	return runner.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
