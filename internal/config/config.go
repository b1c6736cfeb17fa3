package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Buffer      BufferConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
	Session     SessionConfig
	CORS        CORSConfig
	Tasks       TasksConfig
	Simulator   SimulatorConfig
	Monitor     MonitorConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxConn      int
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

// DSN returns URL when set, otherwise a postgres:// URL built from the parts
// with the credentials escaped.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return dsn.String()
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type BufferConfig struct {
	Path           string
	MaxSize        int
	RetentionHours int
	SyncInterval   time.Duration
	MaxRetry       int
	BatchSize      int
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

type SessionConfig struct {
	TTL time.Duration
}

type CORSConfig struct {
	AllowedOrigin string
}

type TasksConfig struct {
	// RejectCycles refuses prerequisite edges that would close a loop.
	RejectCycles bool
}

type SimulatorConfig struct {
	Enabled         bool
	Interval        time.Duration
	RefreshInterval time.Duration
	GestationPeriod time.Duration
}

type MonitorConfig struct {
	Interval time.Duration
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "zoo-backend"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:      getInt("SERVER_MAX_CONN", 0),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "zoo"),
			User:            getString("DB_USER", "zoo"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
			ConnectAttempts: getInt("DB_CONNECT_ATTEMPTS", 5),
			ConnectBackoff:  getDuration("DB_CONNECT_BACKOFF", 2*time.Second),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
			PoolSize: getInt("REDIS_POOL_SIZE", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getString("JWT_ISSUER", "zoo-backend"),
		},
		Buffer: BufferConfig{
			Path:           getString("BOLTDB_PATH", "./data/buffer.db"),
			MaxSize:        getInt("BUFFER_MAX_SIZE", 1_000_000),
			RetentionHours: getInt("BUFFER_RETENTION_HOURS", 24),
			SyncInterval:   getDuration("SYNC_INTERVAL_SECONDS", 30*time.Second),
			MaxRetry:       getInt("MAX_RETRY_ATTEMPTS", 3),
			BatchSize:      getInt("BUFFER_BATCH_SIZE", 50),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
		Session: SessionConfig{
			TTL: getDuration("SESSION_TTL", 24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigin: getString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		},
		Tasks: TasksConfig{
			RejectCycles: getBool("TASKS_REJECT_CYCLES", true),
		},
		Simulator: SimulatorConfig{
			Enabled:         getBool("SIMULATOR_ENABLED", true),
			Interval:        getDuration("SIMULATOR_INTERVAL", 10*time.Second),
			RefreshInterval: getDuration("SIMULATOR_REFRESH_INTERVAL", time.Minute),
			GestationPeriod: getDuration("GESTATION_PERIOD", 120*time.Hour),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
	}

	if cfg.JWT.Secret == "" && cfg.Environment != "production" {
		cfg.JWT.Secret = "dev-secret-change-me"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate reports every invalid setting at once.
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.JWT.Secret != "", "JWT_SECRET is required in %s", c.Environment)
	check(c.Session.TTL > 0, "SESSION_TTL must be positive, got %s", c.Session.TTL)
	check(c.Buffer.BatchSize > 0, "BUFFER_BATCH_SIZE must be positive, got %d", c.Buffer.BatchSize)
	check(c.Buffer.MaxRetry > 0, "MAX_RETRY_ATTEMPTS must be positive, got %d", c.Buffer.MaxRetry)
	check(c.Database.ConnectAttempts > 0, "DB_CONNECT_ATTEMPTS must be positive, got %d", c.Database.ConnectAttempts)
	if c.Simulator.Enabled {
		check(c.Simulator.Interval > 0, "SIMULATOR_INTERVAL must be positive, got %s", c.Simulator.Interval)
		check(c.Simulator.GestationPeriod > 0, "GESTATION_PERIOD must be positive, got %s", c.Simulator.GestationPeriod)
	}
	return errors.Join(errs...)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
