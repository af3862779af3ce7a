package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config the cli setting, from WIDGETS_CONFIG (yaml) and WIDGETS_* variables
type Config struct {
	Addr    string
	Every   string
	Timeout time.Duration
	Base    string
	Cache   CacheConfig
}

// CacheConfig the payload cache setting
type CacheConfig struct {
	Type string // lru | redis | badger, empty picks one from the environment
	TTL  time.Duration
	Size int
	Addr string
	Path string
}

// loadConfig read the configuration from file and env. Env overrides use prefix WIDGETS_
func loadConfig() (Config, error) {
	v := viper.New()

	v.SetDefault("addr", "127.0.0.1:5099")
	v.SetDefault("every", "@every 30s")
	v.SetDefault("timeout", "30s")
	v.SetDefault("base", "")
	v.SetDefault("cache.type", "")
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("cache.size", 256)
	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.path", "")

	v.SetConfigType("yaml")
	if path := os.Getenv("WIDGETS_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("widgets")
	}

	v.SetEnvPrefix("WIDGETS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// the config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
