package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	WSURL            string
	GraphQLURL       string
	SBTContract      string
	SubscribeQuery   string
	TxHashEvent      string
	TxPayloadPath    string
	RefreshInterval  time.Duration
	PGDSN            string
	MetricsAddr      string
	ReconnectBackoff time.Duration
	MaxBackoff       time.Duration
	StoreTimeout     time.Duration
	LogLevel         string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("subscribe-query", "tm.event='Tx'")
	v.SetDefault("tx-hash-event", "tx.hash")
	v.SetDefault("tx-payload-path", "value.TxResult.tx")
	v.SetDefault("refresh-interval", 20*time.Second)
	v.SetDefault("reconnect-backoff", 3*time.Second)
	v.SetDefault("max-backoff", time.Minute)
	v.SetDefault("store-timeout", 10*time.Second)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		WSURL:            v.GetString("ws-url"),
		GraphQLURL:       v.GetString("graphql-url"),
		SBTContract:      v.GetString("sbt-contract"),
		SubscribeQuery:   v.GetString("subscribe-query"),
		TxHashEvent:      v.GetString("tx-hash-event"),
		TxPayloadPath:    v.GetString("tx-payload-path"),
		RefreshInterval:  v.GetDuration("refresh-interval"),
		PGDSN:            v.GetString("pg-dsn"),
		MetricsAddr:      v.GetString("metrics-addr"),
		ReconnectBackoff: v.GetDuration("reconnect-backoff"),
		MaxBackoff:       v.GetDuration("max-backoff"),
		StoreTimeout:     v.GetDuration("store-timeout"),
		LogLevel:         v.GetString("log-level"),
	}

	return cfg, nil
}

// PayloadPath splits the configured envelope path into its segments.
func (c Config) PayloadPath() []string {
	parts := strings.Split(c.TxPayloadPath, ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
