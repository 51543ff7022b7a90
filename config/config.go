package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // session-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Live struct {
	ReaperInterval string `yaml:"reaperInterval"` // период зачистки истёкших комнат
	StoreTimeout   string `yaml:"storeTimeout"`   // потолок на durable-операцию
	PingInterval   string `yaml:"pingInterval"`   // ws ping
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Live     Live     `yaml:"live"`
	CORS     CORS     `yaml:"cors"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	// дефолты, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "session-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	}
	return nil
}

func (c *Config) ReaperInterval() time.Duration {
	return parseDurationOr(30*time.Second, c.Live.ReaperInterval)
}

func (c *Config) StoreTimeout() time.Duration {
	return parseDurationOr(3*time.Second, c.Live.StoreTimeout)
}

func (c *Config) PingInterval() time.Duration {
	return parseDurationOr(15*time.Second, c.Live.PingInterval)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
