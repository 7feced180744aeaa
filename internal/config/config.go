package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// keys lists every setting; each is bound to its environment variable so
// values set only in the process environment are still read.
var keys = []string{
	"ENV", "PORT", "STORE_DRIVER", "DATABASE_URL", "SQLITE_PATH", "EMAILS_PATH",
	"SUGGESTIONS_PATH", "SUGGESTIONS_URL", "DIRECTORY_PATH", "REVIEWER_NAME",
	"ADMIN_KEY", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "LOG_LEVEL",
}

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	StoreDriver     string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	SQLitePath      string        `mapstructure:"SQLITE_PATH"`
	EmailsPath      string        `mapstructure:"EMAILS_PATH"`
	SuggestionsPath string        `mapstructure:"SUGGESTIONS_PATH"`
	SuggestionsURL  string        `mapstructure:"SUGGESTIONS_URL"`
	DirectoryPath   string        `mapstructure:"DIRECTORY_PATH"`
	ReviewerName    string        `mapstructure:"REVIEWER_NAME"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
}

// Load reads configuration from flags, the environment and an optional env
// file, in that order of precedence.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "path to an env file with configuration")
	fs.String("port", "8080", "HTTP listen port")
	fs.String("store", DriverSQLite, "storage driver: postgres or sqlite")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(*envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return Config{}, err
		}
	}
	_ = v.ReadInConfig()

	if err := v.BindPFlag("PORT", fs.Lookup("port")); err != nil {
		return Config{}, err
	}
	if err := v.BindPFlag("STORE_DRIVER", fs.Lookup("store")); err != nil {
		return Config{}, err
	}

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE_DRIVER", DriverSQLite)
	v.SetDefault("SQLITE_PATH", "data/finops.db")
	v.SetDefault("EMAILS_PATH", "data/inbox_emails.json")
	v.SetDefault("SUGGESTIONS_PATH", "data/agent_cache.json")
	v.SetDefault("DIRECTORY_PATH", "data/demo_users.json")
	v.SetDefault("REVIEWER_NAME", "Demo Reviewer")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	switch cfg.StoreDriver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required for the %s store", DriverPostgres)
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return cfg, nil
}
