package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	insecureJWTSecret = "supersecretkey"
)

type Config struct {
	Env           string        `yaml:"env"`
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	// Workers is the background task pool size. Zero runs side effects
	// inline with the request.
	Workers int         `yaml:"workers"`
	Mail    MailConfig  `yaml:"mail"`
	Kafka   KafkaConfig `yaml:"kafka"`
	Redis   RedisConfig `yaml:"redis"`
}

type MailConfig struct {
	SendGridAPIKey string        `yaml:"sendgrid_api_key"`
	BaseURL        string        `yaml:"base_url"`
	FromEmail      string        `yaml:"from_email"`
	FromName       string        `yaml:"from_name"`
	Timeout        time.Duration `yaml:"timeout"`
}

// KafkaConfig enables the kafka notification emitter when Brokers is set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// RedisConfig enables the redis pub/sub notification emitter when Addr is set.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// LoadConfig reads .env (if present) into the environment, builds defaults
// from environment variables and finally applies the YAML file at path.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Env:           getEnv("CGP_ENV", EnvProduction),
		Addr:          getEnv("CGP_ADDR", ":8080"),
		JWTSecret:     getEnv("CGP_JWT_SECRET", insecureJWTSecret),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("CGP_DATABASE_PATH", "career.db"),
		TokenDuration: 24 * time.Hour,
		Workers:       getEnvInt("CGP_WORKERS", 2),
		Mail: MailConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			BaseURL:        getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			FromEmail:      getEnv("SENDGRID_FROM_EMAIL", "no-reply@careerplatform.com"),
			FromName:       getEnv("SENDGRID_FROM_NAME", "Career Platform"),
			Timeout:        30 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("CGP_KAFKA_BROKERS")),
			Topic:   getEnv("CGP_KAFKA_TOPIC", "job-notifications"),
		},
		Redis: RedisConfig{
			Addr:    os.Getenv("CGP_REDIS_ADDR"),
			Channel: getEnv("CGP_REDIS_CHANNEL", "job-notifications"),
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	} else if c.JWTSecret == insecureJWTSecret && !c.IsDevelopment() {
		errs = append(errs, errors.New("jwt_secret uses the built-in default; set CGP_JWT_SECRET or env: development"))
	}
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.TokenDuration <= 0 {
		errs = append(errs, errors.New("token_duration must be positive"))
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative"))
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Redis.Addr != "" && strings.TrimSpace(c.Redis.Channel) == "" {
		errs = append(errs, errors.New("redis.channel is required when addr is set"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
