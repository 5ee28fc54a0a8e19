package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Duration is a time.Duration that decodes yaml scalars like "30s" or "5m"
// (yaml.v3 only handles raw nanosecond integers for time.Duration).
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}

	return fmt.Errorf("invalid duration value at line %d", value.Line)
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Worker   WorkerConfig   `yaml:"worker"`
	Server   ServerConfig   `yaml:"server"`
	Events   EventsConfig   `yaml:"events"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// DatabaseConfig holds database configuration for either driver
type DatabaseConfig struct {
	Driver          string   `yaml:"driver"` // sqlite3 or postgres
	Path            string   `yaml:"path"`   // sqlite3 only
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	User            string   `yaml:"user"`
	Password        string   `yaml:"password"`
	Database        string   `yaml:"database"`
	SSLMode         string   `yaml:"sslmode"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime Duration `yaml:"conn_max_idle_time"`
}

// CrawlerConfig holds outbound fetch configuration
type CrawlerConfig struct {
	BaseURL      string   `yaml:"base_url"`
	UserAgent    string   `yaml:"user_agent"`
	FetchTimeout Duration `yaml:"fetch_timeout"`
	// MinInterval is the global minimum spacing between any two outbound
	// fetches, shared across every worker. Zero disables pacing.
	MinInterval Duration `yaml:"min_interval"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	Count             int      `yaml:"count"`
	MaxAttempts       int      `yaml:"max_attempts"`
	EmptyPollInterval Duration `yaml:"empty_poll_interval"`
	StatsInterval     Duration `yaml:"stats_interval"`
	StuckAfter        Duration `yaml:"stuck_after"`
	ReapInterval      Duration `yaml:"reap_interval"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// EventsConfig holds the optional archive event feed configuration
type EventsConfig struct {
	Enabled  bool           `yaml:"enabled"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int      `yaml:"retry_attempts"`
	RetryInterval Duration `yaml:"retry_interval"`
	Heartbeat     Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts int      `yaml:"retry_attempts"`
	RetryInterval Duration `yaml:"retry_interval"`
}

// Default returns the configuration used when no config file is given.
// Every command works out of the box against a local sqlite database.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "lawvault",
			Version:     "1.0.0",
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			Path:            "lawvault.db",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: Duration(30 * time.Minute),
			ConnMaxIdleTime: Duration(5 * time.Minute),
		},
		Crawler: CrawlerConfig{
			BaseURL:      "https://www.law.cornell.edu",
			UserAgent:    "lawvault/1.0 (educational archival project)",
			FetchTimeout: Duration(30 * time.Second),
			MinInterval:  Duration(10 * time.Second),
		},
		Worker: WorkerConfig{
			Count:             1,
			MaxAttempts:       3,
			EmptyPollInterval: Duration(5 * time.Second),
			StatsInterval:     Duration(60 * time.Second),
			StuckAfter:        Duration(30 * time.Minute),
			ReapInterval:      Duration(5 * time.Minute),
			ShutdownTimeout:   Duration(30 * time.Second),
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(30 * time.Second),
		},
		Events: EventsConfig{
			Enabled: false,
			RabbitMQ: RabbitMQConfig{
				Host:  "localhost",
				Port:  5672,
				User:  "guest",
				VHost: "/",
				Exchange: ExchangeConfig{
					Name:    "lawvault.events",
					Type:    "topic",
					Durable: true,
				},
				Connection: ConnectionConfig{
					RetryAttempts: 3,
					RetryInterval: Duration(2 * time.Second),
					Heartbeat:     Duration(10 * time.Second),
				},
				Publish: PublishConfig{
					RetryAttempts: 3,
					RetryInterval: Duration(100 * time.Millisecond),
				},
			},
		},
	}
}

// Load reads a configuration file over the defaults
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite3")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port < MinPort || c.Database.Port > MaxPort {
			return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Crawler.BaseURL == "" {
		return fmt.Errorf("crawler base_url is required")
	}

	if c.Crawler.FetchTimeout <= 0 {
		return fmt.Errorf("crawler fetch_timeout must be greater than 0")
	}

	if c.Crawler.MinInterval < 0 {
		return fmt.Errorf("crawler min_interval must not be negative")
	}

	if c.Worker.Count <= 0 {
		return fmt.Errorf("worker count must be greater than 0")
	}

	if c.Worker.MaxAttempts <= 0 {
		return fmt.Errorf("worker max_attempts must be greater than 0")
	}

	if c.Worker.EmptyPollInterval <= 0 {
		return fmt.Errorf("worker empty_poll_interval must be greater than 0")
	}

	if c.Worker.StuckAfter <= 0 {
		return fmt.Errorf("worker stuck_after must be greater than 0")
	}

	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Events.Enabled {
		if c.Events.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required when events are enabled")
		}
		if c.Events.RabbitMQ.Port < MinPort || c.Events.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.Events.RabbitMQ.Port, MinPort, MaxPort)
		}
		if c.Events.RabbitMQ.Exchange.Name == "" {
			return fmt.Errorf("rabbitmq exchange name is required when events are enabled")
		}
	}

	return nil
}
