package main

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	Version     string `mapstructure:"VERSION"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`

	DB struct {
		Host     string `mapstructure:"POSTGRES_HOST"`
		Port     string `mapstructure:"POSTGRES_PORT"`
		User     string `mapstructure:"POSTGRES_USER"`
		Password string `mapstructure:"POSTGRES_PASSWORD"`
		Name     string `mapstructure:"POSTGRES_DB"`
	} `mapstructure:",squash"`

	Mail struct {
		Host     string `mapstructure:"MAIL_HOST"`
		Port     int    `mapstructure:"MAIL_PORT"`
		User     string `mapstructure:"MAIL_USER"`
		Password string `mapstructure:"MAIL_PASSWORD"`
		Sender   string `mapstructure:"MAIL_SENDER"`
	} `mapstructure:",squash"`

	RabbitMQ struct {
		Host     string `mapstructure:"RABBITMQ_HOST"`
		Port     string `mapstructure:"RABBITMQ_PORT"`
		User     string `mapstructure:"RABBITMQ_USER"`
		Password string `mapstructure:"RABBITMQ_PASSWORD"`
	} `mapstructure:",squash"`

	Auth struct {
		Secret          string        `mapstructure:"AUTH_SECRET"`
		Issuer          string        `mapstructure:"AUTH_ISSUER"`
		AccessTokenTTL  time.Duration `mapstructure:"AUTH_ACCESS_TOKEN_TTL"`
		RefreshTokenTTL time.Duration `mapstructure:"AUTH_REFRESH_TOKEN_TTL"`
	} `mapstructure:",squash"`

	Limiter struct {
		RPS     float64 `mapstructure:"LIMITER_RPS"`
		Burst   int     `mapstructure:"LIMITER_BURST"`
		Enabled bool    `mapstructure:"LIMITER_ENABLED"`
	} `mapstructure:",squash"`
}

func loadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.SetDefault("AUTH_ISSUER", "blogmate")
	viper.SetDefault("AUTH_ACCESS_TOKEN_TTL", "15m")
	viper.SetDefault("AUTH_REFRESH_TOKEN_TTL", "168h")
	viper.SetDefault("LIMITER_RPS", 2.0)
	viper.SetDefault("LIMITER_BURST", 4)
	viper.SetDefault("LIMITER_ENABLED", true)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
