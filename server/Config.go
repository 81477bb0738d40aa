package server

import (
	"context"
	"time"

	"github.com/caarlos0/env"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server defines the HTTP server contract
type Server interface {
	Start() error
	Router() *gin.Engine
	Shutdown(ctx context.Context) error
	GetResponseWriter() *ResponseWriter
	GetLogger() zerolog.Logger
}

// Config defines runtime configuration
type Config struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"dev"`
	Version         string        `env:"VERSION" envDefault:"dev"`
	MaxRequestSize  int64         `env:"MAX_REQUEST_SIZE" envDefault:"52428800"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		Environment:     "dev",
		Version:         "dev",
		MaxRequestSize:  50 << 20, // photos are big
		ShutdownTimeout: 15 * time.Second,
	}
}

// ConfigFromEnv reads the server config from the environment, falling back
// to the defaults above.
func ConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Handler allows for modular startup and teardown
type Handler interface {
	Setup(server Server) error
	Shutdown() error
}
