package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Upstream   UpstreamConfig
	Cache      CacheConfig
	Monitoring MonitoringConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// UpstreamConfig describes the occupancy sensor API and the fixed
// credential pair used for the password grant.
type UpstreamConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	DeploymentID      string        `mapstructure:"deployment_id"`
	DeploymentName    string        `mapstructure:"deployment_name"`
	Username          string        `mapstructure:"username"`
	Password          string        `mapstructure:"password"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	BreakerFailures   uint32        `mapstructure:"breaker_failures"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout"`
}

// CacheConfig holds the per-entity expirations.
type CacheConfig struct {
	SurveyTTL       time.Duration `mapstructure:"survey_ttl"`
	ImageTTL        time.Duration `mapstructure:"image_ttl"`
	SensorStatusTTL time.Duration `mapstructure:"sensor_status_ttl"`
}

type MonitoringConfig struct {
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("OCCUPEYE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Upstream defaults. The credential keys are registered so AutomaticEnv
	// can resolve them during Unmarshal.
	v.SetDefault("upstream.base_url", "")
	v.SetDefault("upstream.deployment_id", "")
	v.SetDefault("upstream.deployment_name", "")
	v.SetDefault("upstream.username", "")
	v.SetDefault("upstream.password", "")
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("upstream.requests_per_second", 10)
	v.SetDefault("upstream.burst", 20)
	v.SetDefault("upstream.breaker_failures", 5)
	v.SetDefault("upstream.breaker_timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.survey_ttl", "24h")
	v.SetDefault("cache.image_ttl", "48h")
	v.SetDefault("cache.sensor_status_ttl", "60s")

	// Monitoring defaults
	v.SetDefault("monitoring.metrics_enabled", true)
}

func validateConfig(config *Config) error {
	if config.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required")
	}
	if config.Upstream.DeploymentName == "" {
		return fmt.Errorf("upstream deployment name is required")
	}
	if config.Upstream.Username == "" || config.Upstream.Password == "" {
		return fmt.Errorf("upstream username and password are required")
	}
	if config.Cache.SurveyTTL <= 0 || config.Cache.ImageTTL <= 0 || config.Cache.SensorStatusTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	// Sensor state is volatile and must expire before the static sensor record.
	if config.Cache.SensorStatusTTL >= config.Cache.SurveyTTL {
		return fmt.Errorf("sensor status TTL (%s) must be shorter than survey TTL (%s)",
			config.Cache.SensorStatusTTL, config.Cache.SurveyTTL)
	}
	if config.Upstream.RequestsPerSecond <= 0 {
		return fmt.Errorf("upstream requests per second must be positive")
	}
	return nil
}

// Addr returns the host:port pair for the Redis connection.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
