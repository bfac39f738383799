package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-history-indexer/internal/application/history"
	"wallet-history-indexer/internal/domain/repository"
	domain_service "wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/blockchain"
	"wallet-history-indexer/internal/infrastructure/config"
	"wallet-history-indexer/internal/infrastructure/database"
	"wallet-history-indexer/internal/infrastructure/explorer"
	"wallet-history-indexer/internal/infrastructure/httpapi"
	"wallet-history-indexer/internal/infrastructure/logger"
	"wallet-history-indexer/internal/infrastructure/messaging"
	"wallet-history-indexer/internal/infrastructure/metrics"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.Explorer),
		fx.Supply(&cfg.Chain),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			newActivityRepository,
			messaging.NewNATSConnection,
			messaging.NewHistoryPublisher,
			newEthereumClient,
			newLedgerSource,
		),

		// Application providers
		fx.Provide(
			func(cfg *config.Config) *history.AccountRegistry {
				return history.NewAccountRegistry(cfg.Wallet.Address)
			},
			func(cfg *config.Config) *history.Pipeline {
				return history.NewPipeline(cfg.History.Location(), nil)
			},
			newHistoryService,
			func(reg *history.AccountRegistry, conn *messaging.NATSConnection, log *logger.Logger) *messaging.AccountWatcher {
				return messaging.NewAccountWatcher(conn, reg, log)
			},
		),

		// Lifecycle hooks
		fx.Invoke(startHistory),
		fx.Invoke(startHTTPServer),
		fx.Invoke(startMetricsServer),

		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

// newEthereumClient dials the node when an RPC URL is configured, otherwise returns nil
func newEthereumClient(lifecycle fx.Lifecycle, cfg *config.ChainConfig, log *logger.Logger) (*blockchain.EthereumClient, error) {
	if cfg.RPCURL == "" {
		log.Info("No RPC URL configured, on-chain log source disabled")
		return nil, nil
	}

	client, err := blockchain.NewEthereumClient(context.Background(), cfg.RPCURL, cfg.Timeout, log)
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})
	return client, nil
}

// newLedgerSource merges every configured source
func newLedgerSource(
	explorerCfg *config.ExplorerConfig,
	chainCfg *config.ChainConfig,
	ethClient *blockchain.EthereumClient,
	log *logger.Logger,
) (domain_service.LedgerSource, error) {
	var sources []domain_service.LedgerSource

	if explorerCfg.Enabled {
		sources = append(sources, explorer.NewClient(explorerCfg, log))
	}

	if ethClient != nil && len(chainCfg.Tokens) > 0 {
		decoder, err := blockchain.NewERC20LogDecoder()
		if err != nil {
			return nil, err
		}
		sources = append(sources, blockchain.NewLogSource(ethClient, decoder, chainCfg, log))
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no ledger source enabled: enable explorer or configure chain.rpc_url")
	}

	log.Info("Ledger sources configured", zap.Int("count", len(sources)))
	return history.NewMultiSource(log, sources...), nil
}

// newActivityRepository returns nil when the graph export is disabled
func newActivityRepository(client *database.Neo4JClient, log *logger.Logger) repository.ActivityRepository {
	if !client.Enabled() {
		return nil
	}
	return database.NewNeo4JActivityRepository(client, log)
}

func newHistoryService(
	cfg *config.Config,
	source domain_service.LedgerSource,
	pipeline *history.Pipeline,
	accounts *history.AccountRegistry,
	publisher *messaging.HistoryPublisher,
	activity repository.ActivityRepository,
	log *logger.Logger,
) *history.Service {
	opts := []history.Option{
		history.WithPublisher(publisher),
		history.WithRefreshTimeout(cfg.History.RefreshTimeout),
	}
	if activity != nil {
		opts = append(opts, history.WithActivityRepository(activity))
	}
	return history.NewService(source, pipeline, accounts, log, opts...)
}

// startHistory connects the side channels and starts following the active account
func startHistory(
	lifecycle fx.Lifecycle,
	svc *history.Service,
	natsConn *messaging.NATSConnection,
	watcher *messaging.AccountWatcher,
	neo4jClient *database.Neo4JClient,
	log *logger.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting history service...")

			if err := neo4jClient.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to Neo4J: %w", err)
			}

			if err := natsConn.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			if err := svc.Start(ctx); err != nil {
				return err
			}

			return watcher.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping history service...")

			if err := watcher.Stop(); err != nil {
				log.Warn("Failed to stop account watcher", zap.Error(err))
			}
			if err := svc.Stop(ctx); err != nil {
				log.Warn("History service did not stop in time", zap.Error(err))
			}
			if err := neo4jClient.Close(ctx); err != nil {
				log.Error("Failed to close Neo4J connection", zap.Error(err))
			}
			return natsConn.Disconnect()
		},
	})
}

// startHTTPServer serves the rendering surface
func startHTTPServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	svc *history.Service,
	activity repository.ActivityRepository,
	natsConn *messaging.NATSConnection,
	neo4jClient *database.Neo4JClient,
	log *logger.Logger,
) {
	checks := map[string]httpapi.HealthCheck{
		"nats":  func(*http.Request) bool { return natsConn.IsConnected() },
		"neo4j": func(r *http.Request) bool { return neo4jClient.IsConnected(r.Context()) },
	}
	api := httpapi.NewAPI(svc, activity, cfg.Explorer.TxURLBase, checks, log)
	server := httpapi.NewServer(cfg.App.HTTPPort, httpapi.BuildRouter(api), log)

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping HTTP server...")
			return server.Stop(ctx)
		},
	})
}

// startMetricsServer exposes prometheus metrics on their own port
func startMetricsServer(lifecycle fx.Lifecycle, cfg *config.Config, log *logger.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := httpapi.NewServer(cfg.Metrics.Port, mux, log)

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			return server.Stop(ctx)
		},
	})
}
