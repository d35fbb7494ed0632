package config

import (
	"errors"
	"time"

	"chargehub/libs/config"
)

// Config is the full server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// HTTPConfig configures the REST listener.
type HTTPConfig struct {
	Port            string        `yaml:"port" env:"HTTP_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig configures the postgres connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

// RedisConfig configures the presence store.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

// KafkaConfig configures event publishing. Empty brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC"`
}

// AuthConfig configures REST authentication.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	APIKeyHash string        `yaml:"api_key_hash" env:"API_KEY_HASH"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

// WebSocketConfig configures station connections.
type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"ping_interval" env:"WS_PING_INTERVAL"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WS_WRITE_TIMEOUT"`
	CallTimeout  time.Duration `yaml:"call_timeout" env:"WS_CALL_TIMEOUT"`
}

// Load reads config from the optional YAML file plus environment and applies
// defaults. Missing required values fail startup rather than surfacing later.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "chargehub.events"
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = time.Hour
	}
	if cfg.WebSocket.PingInterval == 0 {
		cfg.WebSocket.PingInterval = 30 * time.Second
	}
	if cfg.WebSocket.WriteTimeout == 0 {
		cfg.WebSocket.WriteTimeout = 10 * time.Second
	}
	if cfg.WebSocket.CallTimeout == 0 {
		cfg.WebSocket.CallTimeout = 30 * time.Second
	}

	if cfg.Database.DSN == "" {
		return nil, errors.New("config: database dsn is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	if cfg.Auth.APIKeyHash == "" {
		return nil, errors.New("config: api key hash is required")
	}

	return cfg, nil
}
