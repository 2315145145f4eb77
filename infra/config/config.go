package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPServerHost       string `mapstructure:"HTTP_SERVER_HOST"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	ProcessorDefaultURL  string `mapstructure:"PROCESSOR_DEFAULT_URL"`
	ProcessorFallbackURL string `mapstructure:"PROCESSOR_FALLBACK_URL"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	PubsubURL            string `mapstructure:"PUBSUB_URL"`
	Debug                bool   `mapstructure:"DEBUG"`

	// Worker pool size, defaulting to 1 on a missing or unparseable value.
	Workers int `mapstructure:"-"`
}

func LoadConfig(path ...string) Config {
	viper.AddConfigPath("./etc/config/")
	viper.SetConfigName("server.env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	for _, key := range []string{
		"HTTP_SERVER_HOST",
		"REDIS_URL",
		"PROCESSOR_DEFAULT_URL",
		"PROCESSOR_FALLBACK_URL",
		"DATABASE_URL",
		"PUBSUB_URL",
		"DEBUG",
		"WORKERS",
	} {
		viper.SetDefault(key, "")
	}

	// The env file is optional; plain environment variables are enough.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("unable to decode into struct, %v", err))
	}

	config.Workers = workerCount()

	for key, value := range map[string]string{
		"REDIS_URL":              config.RedisURL,
		"HTTP_SERVER_HOST":       config.HTTPServerHost,
		"PROCESSOR_DEFAULT_URL":  config.ProcessorDefaultURL,
		"PROCESSOR_FALLBACK_URL": config.ProcessorFallbackURL,
	} {
		if value == "" {
			panic(fmt.Errorf("missing required config %s", key))
		}
	}

	return config
}

func workerCount() int {
	n, err := strconv.Atoi(viper.GetString("WORKERS"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
