package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// IsDevelopment reports whether the server runs outside production
func (s ServerConfig) IsDevelopment() bool {
	return s.Env != "production"
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// DSN returns the Postgres connection URL for the pgx driver
func (d DatabaseConfig) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: "sslmode=disable&search_path=" + url.QueryEscape(d.Schema),
	}
	return dsn.String()
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

type KafkaConfig struct {
	Brokers    []string // empty disables event publishing
	OrderTopic string
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type AuthConfig struct {
	// SellerInviteCode grants the seller role at registration. Empty disables seller sign-up.
	SellerInviteCode string
}

type RateLimitConfig struct {
	RequestsPerWindow int
	WindowSeconds     int
}

var defaults = map[string]interface{}{
	"SERVER_PORT":               "8080",
	"SERVER_ENV":                "development",
	"LOG_LEVEL":                 "info",
	"CORS_ALLOWED_ORIGINS":      "http://localhost:3000",
	"DB_HOST":                   "localhost",
	"DB_PORT":                   "5432",
	"DB_SCHEMA":                 "public",
	"MONGO_URI":                 "mongodb://localhost:27017",
	"MONGO_DATABASE":            "storefront",
	"REDIS_HOST":                "localhost",
	"REDIS_PORT":                "6379",
	"REDIS_DB":                  0,
	"KAFKA_BROKERS":             "",
	"KAFKA_ORDER_TOPIC":         "storefront.orders",
	"JWT_ACCESS_EXPIRY":         15,
	"JWT_REFRESH_EXPIRY":        7,
	"RATE_LIMIT_REQUESTS":       30,
	"RATE_LIMIT_WINDOW_SECONDS": 60,
}

// Load reads .env from the working directory, then the process environment,
// which wins over the file.
func Load() *Config {
	// Export .env into the process environment for code that reads os.Getenv directly
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env into environment: %v", err)
	}

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
		},
		Mongo: MongoConfig{
			URI:      v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(v.GetString("KAFKA_BROKERS")),
			OrderTopic: v.GetString("KAFKA_ORDER_TOPIC"),
		},
		JWT: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  v.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: v.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Auth: AuthConfig{
			SellerInviteCode: v.GetString("SELLER_INVITE_CODE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds:     v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}
}

const minSecretLength = 32

// Validate rejects settings the server cannot run with. Production additionally
// needs a strong JWT secret and an explicit CORS allow list.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Kafka.OrderTopic == "" && len(c.Kafka.Brokers) > 0 {
		errs = append(errs, errors.New("KAFKA_ORDER_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if !c.Server.IsDevelopment() {
		if len(c.JWT.Secret) < minSecretLength {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters in production", minSecretLength))
		}
		if len(c.Server.AllowedOrigins) == 0 {
			errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS is required in production"))
		}
	}
	return errors.Join(errs...)
}

// splitList parses a comma separated list, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
