package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "shuttletrack/backend/libs/config"
)

// Config defines telemetry service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"TELEMETRY_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"TELEMETRY_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr" env:"TELEMETRY_REDIS_ADDR"`
		Password   string `yaml:"password" env:"TELEMETRY_REDIS_PASSWORD"`
		DB         int    `yaml:"db" env:"TELEMETRY_REDIS_DB"`
		TTLSeconds int    `yaml:"ttlSeconds" env:"TELEMETRY_REDIS_TTL"`
	} `yaml:"redis"`
	MQTT struct {
		BrokerURL      string        `yaml:"brokerUrl" env:"TELEMETRY_MQTT_BROKER_URL"`
		ClientID       string        `yaml:"clientId" env:"TELEMETRY_MQTT_CLIENT_ID"`
		ConnectTimeout time.Duration `yaml:"connectTimeout" env:"TELEMETRY_MQTT_CONNECT_TIMEOUT"`
	} `yaml:"mqtt"`
	Pipeline struct {
		QueueSize               int    `yaml:"queueSize" env:"TELEMETRY_QUEUE_SIZE"`
		ZoneMatchOnPositionOnly bool   `yaml:"zoneMatchOnPositionOnly" env:"TELEMETRY_ZONE_MATCH_POSITION_ONLY"`
		TotalSeats              int    `yaml:"totalSeats" env:"TELEMETRY_TOTAL_SEATS"`
		DoorCounterMAC          string `yaml:"doorCounterMac" env:"TELEMETRY_DOOR_COUNTER_MAC"`
	} `yaml:"pipeline"`
}

// Load uses shared config loader and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.TTLSeconds = 3600
	cfg.MQTT.BrokerURL = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "telemetry-service"
	cfg.MQTT.ConnectTimeout = 10 * time.Second
	cfg.Pipeline.QueueSize = 256
	cfg.Pipeline.TotalSeats = 33
	cfg.Pipeline.DoorCounterMAC = "ESP32-CAM-01"

	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database DSN is required")
	}
	if strings.TrimSpace(cfg.MQTT.BrokerURL) == "" {
		return nil, errors.New("config: mqtt broker URL is required")
	}

	return cfg, nil
}

// HTTPAddress returns :port style address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// CacheTTL returns position cache ttl as duration.
func (c *Config) CacheTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}
