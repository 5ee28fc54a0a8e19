package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, "lawvault", cfg.App.Name)
				assert.Equal(t, "sqlite3", cfg.Database.Driver)
				assert.Equal(t, "/var/lib/lawvault/lawvault.db", cfg.Database.Path)
				assert.Equal(t, "https://www.law.cornell.edu", cfg.Crawler.BaseURL)
				assert.Equal(t, 10*time.Second, cfg.Crawler.MinInterval.Std())
				assert.Equal(t, 4, cfg.Worker.Count)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.True(t, cfg.Events.Enabled)
				assert.Equal(t, "lawvault.events", cfg.Events.RabbitMQ.Exchange.Name)
			}
		})
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := Load("testdata/postgres_config.yaml")
	require.NoError(t, err)

	// Overridden by the file
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "require", cfg.Database.SSLMode)

	// Untouched sections keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Crawler.MinInterval.Std())
	assert.Equal(t, 3, cfg.Worker.MaxAttempts)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "lawvault.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Second, cfg.Crawler.MinInterval.Std())
	assert.Equal(t, 30*time.Second, cfg.Crawler.FetchTimeout.Std())
	assert.Equal(t, 1, cfg.Worker.Count)
	assert.Equal(t, 3, cfg.Worker.MaxAttempts)
	assert.False(t, cfg.Events.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return Default() }

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid default config",
			mutate: func(c *Config) {},
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Database.Path = ""
			},
			wantErr:   true,
			errString: "database path is required",
		},
		{
			name: "unsupported driver",
			mutate: func(c *Config) {
				c.Database.Driver = "oracle"
			},
			wantErr:   true,
			errString: "unsupported database driver",
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.Database = "lawvault"
			},
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name: "postgres without database name",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.Host = "localhost"
			},
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name: "missing base url",
			mutate: func(c *Config) {
				c.Crawler.BaseURL = ""
			},
			wantErr:   true,
			errString: "base_url is required",
		},
		{
			name: "negative min interval",
			mutate: func(c *Config) {
				c.Crawler.MinInterval = Duration(-time.Second)
			},
			wantErr:   true,
			errString: "min_interval must not be negative",
		},
		{
			name: "zero min interval is allowed",
			mutate: func(c *Config) {
				c.Crawler.MinInterval = 0
			},
		},
		{
			name: "zero workers",
			mutate: func(c *Config) {
				c.Worker.Count = 0
			},
			wantErr:   true,
			errString: "worker count must be greater than 0",
		},
		{
			name: "zero max attempts",
			mutate: func(c *Config) {
				c.Worker.MaxAttempts = 0
			},
			wantErr:   true,
			errString: "max_attempts must be greater than 0",
		},
		{
			name: "invalid server port - too low",
			mutate: func(c *Config) {
				c.Server.Port = 0
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "invalid server port - too high",
			mutate: func(c *Config) {
				c.Server.Port = 70000
			},
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name: "events enabled without exchange",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.RabbitMQ.Exchange.Name = ""
			},
			wantErr:   true,
			errString: "rabbitmq exchange name is required",
		},
		{
			name: "events enabled without host",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.RabbitMQ.Host = ""
			},
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_ValidateIntegration(t *testing.T) {
	t.Run("load and validate valid config", func(t *testing.T) {
		cfg, err := Load("testdata/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		require.NoError(t, cfg.Validate())
	})

	t.Run("load config with invalid port", func(t *testing.T) {
		cfg, err := Load("testdata/invalid_port.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server port")
	})

	t.Run("load config with missing database name", func(t *testing.T) {
		cfg, err := Load("testdata/missing_db_name.yaml")
		require.NoError(t, err)
		require.NotNil(t, cfg)

		err = cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database name is required")
	})
}

func TestPortConstants(t *testing.T) {
	t.Run("port constants are correct", func(t *testing.T) {
		assert.Equal(t, 1, MinPort)
		assert.Equal(t, 65535, MaxPort)
	})

	t.Run("valid port range", func(t *testing.T) {
		validPorts := []int{1, 80, 443, 8080, 65535}
		for _, port := range validPorts {
			assert.GreaterOrEqual(t, port, MinPort)
			assert.LessOrEqual(t, port, MaxPort)
		}
	})
}
