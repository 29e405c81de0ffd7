package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	tempFile, err := os.CreateTemp("", "config*.env")
	if err != nil {
		t.Fatalf("Failed to create temporary config file: %v", err)
	}
	defer os.Remove(tempFile.Name())

	configData := []byte(`
PORT=:8080
ENVIRONMENT=development
VERSION=1.0.0
POSTGRES_HOST=localhost
POSTGRES_PORT=5432
POSTGRES_USER=testuser
POSTGRES_PASSWORD=testpassword
POSTGRES_DB=testdb
MAIL_HOST=smtp.example.com
MAIL_PORT=587
MAIL_USER=testuser@example.com
MAIL_PASSWORD=testpassword
MAIL_SENDER=sender@example.com
RABBITMQ_HOST=rabbitmq.example.com
RABBITMQ_PORT=5672
RABBITMQ_USER=testuser
RABBITMQ_PASSWORD=testpassword
AUTH_SECRET=supersecretkey
AUTH_ISSUER=blogmate
AUTH_ACCESS_TOKEN_TTL=15m
AUTH_REFRESH_TOKEN_TTL=168h
LIMITER_RPS=2
LIMITER_BURST=4
LIMITER_ENABLED=true
`)
	if _, err := tempFile.Write(configData); err != nil {
		t.Fatalf("Failed to write test configuration to temporary file: %v", err)
	}

	cfg, err := loadConfig(tempFile.Name())
	assert.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "testdb", cfg.DB.Name)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "rabbitmq.example.com", cfg.RabbitMQ.Host)
	assert.Equal(t, "supersecretkey", cfg.Auth.Secret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 2.0, cfg.Limiter.RPS)
	assert.True(t, cfg.Limiter.Enabled)
}
