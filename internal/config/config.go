package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mdouchement/itemd/internal/database"
	"github.com/pkg/errors"
)

type (
	// A Config holds all the server settings.
	Config struct {
		Port     int      `koanf:"port"`
		Database Database `koanf:"database"`
		Server   Server   `koanf:"server"`
		Log      Log      `koanf:"log"`
	}

	// Database holds the database connection settings.
	Database struct {
		URI              string        `koanf:"uri"`
		Name             string        `koanf:"name"`
		Codec            string        `koanf:"codec"`
		ConnectTimeout   time.Duration `koanf:"connect_timeout"`
		OperationTimeout time.Duration `koanf:"operation_timeout"`
		PoolSize         int           `koanf:"pool_size"`
		Retention        time.Duration `koanf:"retention"`
		ReapInterval     time.Duration `koanf:"reap_interval"`
	}

	// Server holds the HTTP server settings.
	Server struct {
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	}

	// Log holds the logger settings.
	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
		File   string `koanf:"file"`
	}
)

var defaults = map[string]any{
	"port":                       3000,
	"database.uri":               "./data",
	"database.name":              "appdb",
	"database.codec":             "msgpack",
	"database.connect_timeout":   "5s",
	"database.operation_timeout": "30s",
	"database.pool_size":         50,
	"database.retention":         "24h",
	"database.reap_interval":     "1m",
	"server.shutdown_timeout":    "10s",
	"log.level":                  "info",
	"log.format":                 "text",
	"log.file":                   "",
}

// environment maps recognized environment variables to their configuration key.
var environment = map[string]string{
	"PORT":                       "port",
	"DATABASE_URI":               "database.uri",
	"DATABASE_NAME":              "database.name",
	"DATABASE_CODEC":             "database.codec",
	"DATABASE_CONNECT_TIMEOUT":   "database.connect_timeout",
	"DATABASE_OPERATION_TIMEOUT": "database.operation_timeout",
	"DATABASE_POOL_SIZE":         "database.pool_size",
	"DATABASE_RETENTION":         "database.retention",
	"DATABASE_REAP_INTERVAL":     "database.reap_interval",
	"SHUTDOWN_TIMEOUT":           "server.shutdown_timeout",
	"LOG_LEVEL":                  "log.level",
	"LOG_FORMAT":                 "log.format",
	"LOG_FILE":                   "log.file",
}

// legacy maps the environment variables of earlier deployments to their configuration key.
// The current names in environment take precedence over them.
var legacy = map[string]string{
	"MONGODB_URI": "database.uri",
	"MONGODB_DB":  "database.name",
}

// Load reads the configuration from defaults, the optional YAML file,
// the optional dotenv file and the environment, the latter taking precedence.
func Load(filename, dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "could not load dotenv file")
		}
	}

	konf := koanf.New(".")
	if err := konf.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, "could not load defaults")
	}

	if filename != "" {
		if err := konf.Load(file.Provider(filename), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, "could not load configuration file")
		}
	}

	for _, names := range []map[string]string{legacy, environment} {
		if err := konf.Load(envProvider(names), nil); err != nil {
			return nil, errors.Wrap(err, "could not load environment")
		}
	}

	var cfg Config
	if err := konf.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "could not decode configuration")
	}

	return &cfg, cfg.Validate()
}

func envProvider(names map[string]string) *env.Env {
	return env.Provider("", ".", func(s string) string {
		return names[strings.ToUpper(s)]
	})
}

// Validate checks the configuration consistency.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return errors.Errorf("invalid port %d", c.Port)
	case strings.Contains(c.Database.URI, "://") && !strings.HasPrefix(c.Database.URI, "file://"):
		return errors.Errorf("unsupported database uri %q, expected a directory or a file:// uri", c.Database.URI)
	case c.Database.Name == "":
		return errors.New("database name not found")
	case c.Database.PoolSize <= 0:
		return errors.Errorf("invalid database pool size %d", c.Database.PoolSize)
	}
	return nil
}

// DatabaseOptions returns the database connection options.
func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		URI:              c.Database.URI,
		Name:             c.Database.Name,
		Codec:            c.Database.Codec,
		ConnectTimeout:   c.Database.ConnectTimeout,
		OperationTimeout: c.Database.OperationTimeout,
		PoolSize:         c.Database.PoolSize,
		Retention:        c.Database.Retention,
		ReapInterval:     c.Database.ReapInterval,
	}
}
