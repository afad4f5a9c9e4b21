package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	Order    OrderConfig
}

type ServerConfig struct {
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins     []string      `env:"SERVER_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

type DBConfig struct {
	Host        string `env:"DB_HOST" envDefault:"localhost"`
	Port        int    `env:"DB_PORT" envDefault:"5432"`
	User        string `env:"DB_USER" envDefault:"postgres"`
	Password    string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name        string `env:"DB_NAME" envDefault:"northwind"`
	SSLMode     string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// RedisConfig with an empty Addr disables caching and message de-duplication.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// RabbitMQConfig with an empty URL makes activity logging write straight to
// the database.
type RabbitMQConfig struct {
	URL string `env:"RABBITMQ_URL" envDefault:""`
}

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET" envDefault:"super-secret-key"`
	Expiration time.Duration `env:"JWT_EXPIRATION" envDefault:"1h"`
}

type PaymentConfig struct {
	TestCardNumber string        `env:"PAYMENT_TEST_CARD" envDefault:"4548810000000003"`
	SimulatedDelay time.Duration `env:"PAYMENT_SIMULATED_DELAY" envDefault:"2s"`
}

type OrderConfig struct {
	AllowEmpty bool `env:"ORDER_ALLOW_EMPTY" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
