// Package config loads server settings from defaults, a .env file, the
// environment and finally command-line flags, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"notebins/pkg/logger"
)

var defaultOrigins = []string{
	"https://www.notebins.me",
	"https://notebins.me",
	"http://localhost:5173",
	"http://localhost:3000",
}

type Config struct {
	Addr           string
	DatabaseURL    string
	DataFile       string
	AllowedOrigins []string
	Environment    string
	SweepInterval  time.Duration
	LogLevel       string
}

// Production reports whether strict origin checks apply.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

func defaults() *Config {
	return &Config{
		Addr:           ":8080",
		DataFile:       "data/notes.json",
		AllowedOrigins: defaultOrigins,
		Environment:    "development",
		SweepInterval:  time.Minute,
		LogLevel:       "info",
	}
}

// Load builds the configuration for the given command-line arguments
// (without the program name).
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	cfg := defaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyFlags(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func (c *Config) applyEnv() error {
	if port := env("PORT"); port != "" {
		c.Addr = ":" + port
	}
	if v := env("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	} else {
		c.DatabaseURL = databaseURLFromParts()
	}
	if v, ok := os.LookupEnv("DATA_FILE"); ok {
		c.DataFile = strings.TrimSpace(v)
	}
	if v := env("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v := env("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := env("SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: SWEEP_INTERVAL: %w", err)
		}
		c.SweepInterval = d
	}
	if v := env("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// databaseURLFromParts assembles a DSN from the discrete user, password,
// host, port and dbname variables. Returns "" when no host is set.
func databaseURLFromParts() string {
	host := env("host")
	if host == "" {
		return ""
	}
	port := env("port")
	if port == "" {
		port = "5432"
	}
	sslmode := env("sslmode")
	if sslmode == "" {
		sslmode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(env("user"), env("password")),
		Host:     host + ":" + port,
		Path:     "/" + env("dbname"),
		RawQuery: "sslmode=" + sslmode,
	}
	return u.String()
}

func (c *Config) applyFlags(args []string) error {
	fs := pflag.NewFlagSet("notebins", pflag.ContinueOnError)
	fs.StringVarP(&c.Addr, "addr", "a", c.Addr, "address and port to listen on")
	fs.StringVarP(&c.DatabaseURL, "database-url", "d", c.DatabaseURL, "PostgreSQL DSN for saved notes (empty keeps them in memory)")
	fs.StringVarP(&c.DataFile, "data-file", "f", c.DataFile, "snapshot file for live notes (empty disables the snapshot)")
	fs.StringSliceVar(&c.AllowedOrigins, "allowed-origins", c.AllowedOrigins, "browser origins accepted in production")
	fs.StringVar(&c.Environment, "env", c.Environment, "deployment environment")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "how often expired saved notes are purged")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	return fs.Parse(args)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
