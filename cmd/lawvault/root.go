package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lawvault/lawvault/internal/archive"
	"github.com/lawvault/lawvault/internal/config"
	"github.com/lawvault/lawvault/internal/events"
	"github.com/lawvault/lawvault/internal/metrics"
	"github.com/lawvault/lawvault/internal/queue"
	"github.com/lawvault/lawvault/shared/logger"
	"github.com/lawvault/lawvault/shared/rabbitmq"
	"github.com/lawvault/lawvault/shared/sqldb"
)

var (
	cfgFile  string
	dbPath   string
	logLevel string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lawvault",
		Short: "Queue-based archiver for the Cornell LII law collection",
		Long: `lawvault archives the United States Code, the Code of Federal
Regulations, Supreme Court opinions, the Constitution, and the Federal
Rules of Procedure from law.cornell.edu into a local database.

All work flows through a persistent job queue: seed enqueues the initial
discovery jobs, run processes the queue with rate-limited workers, and
every job survives restarts and retries transient failures.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the sqlite database (overrides config)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newResetCmd())

	return cmd
}

// setup loads configuration, applies flag overrides, and builds the
// application logger.
func setup() (*config.Config, *logger.Logger, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("LAWVAULT_CONFIG_PATH")
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if dbPath != "" {
		cfg.Database.Driver = "sqlite3"
		cfg.Database.Path = dbPath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	metrics.Init()

	return cfg, appLogger, nil
}

// openStores opens the database and initializes the queue and archive
// schemas. The caller owns the returned client and must close it.
func openStores(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*sqldb.Client, *queue.Store, *archive.Store, error) {
	client, err := sqldb.NewClient(&sqldb.Config{
		Driver:          cfg.Database.Driver,
		Path:            cfg.Database.Path,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime.Std(),
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime.Std(),
	}, appLogger.Logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := queue.NewStore(client.GetDB(), cfg.Worker.MaxAttempts, appLogger.Logger)
	if err := store.Init(ctx); err != nil {
		client.Close()
		return nil, nil, nil, err
	}

	docs := archive.NewStore(client.GetDB(), appLogger.Logger)
	if err := docs.Init(ctx); err != nil {
		client.Close()
		return nil, nil, nil, err
	}

	return client, store, docs, nil
}

// newEventsPublisher builds the archive event feed: a RabbitMQ publisher
// when events are enabled, otherwise a no-op.
func newEventsPublisher(cfg *config.Config, appLogger *logger.Logger) (events.Publisher, error) {
	if !cfg.Events.Enabled {
		return events.NopPublisher{}, nil
	}

	rabbitCfg := &cfg.Events.RabbitMQ
	client, err := rabbitmq.NewClient(&rabbitmq.Config{
		Host:               rabbitCfg.Host,
		Port:               rabbitCfg.Port,
		User:               rabbitCfg.User,
		Password:           rabbitCfg.Password,
		VHost:              rabbitCfg.VHost,
		ExchangeName:       rabbitCfg.Exchange.Name,
		ExchangeType:       rabbitCfg.Exchange.Type,
		ExchangeDurable:    rabbitCfg.Exchange.Durable,
		ExchangeAutoDelete: rabbitCfg.Exchange.AutoDelete,
		RetryAttempts:      rabbitCfg.Connection.RetryAttempts,
		RetryInterval:      rabbitCfg.Connection.RetryInterval.Std(),
		Heartbeat:          rabbitCfg.Connection.Heartbeat.Std(),
		PublishRetries:     rabbitCfg.Publish.RetryAttempts,
		PublishRetryDelay:  rabbitCfg.Publish.RetryInterval.Std(),
	}, appLogger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	return events.NewRabbitPublisher(client, appLogger.Logger), nil
}
