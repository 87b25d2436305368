package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	Log struct {
		Directory string
		File      string
		Size      int
		Count     int
		Level     string
		Console   bool
	}
}

// Load reads config from environment (MARKET_ prefix) and optional joe-market.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("joe-market")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.directory", ".")
	v.SetDefault("log.file", "joe-market.log")
	v.SetDefault("log.size", 1048576)
	v.SetDefault("log.count", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Log.Directory = v.GetString("log.directory")
	cfg.Log.File = v.GetString("log.file")
	cfg.Log.Size = v.GetInt("log.size")
	cfg.Log.Count = v.GetInt("log.count")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Console = v.GetBool("log.console")

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("MARKET_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("MARKET_DB_DSN is required")
	}
	switch cfg.Log.Level {
	case "trace", "debug", "info", "warn", "error", "critical":
	default:
		return nil, fmt.Errorf("invalid MARKET_LOG_LEVEL %q", cfg.Log.Level)
	}
	if cfg.Log.Size <= 0 || cfg.Log.Count <= 0 {
		return nil, fmt.Errorf("MARKET_LOG_SIZE and MARKET_LOG_COUNT must be positive")
	}

	return cfg, nil
}
