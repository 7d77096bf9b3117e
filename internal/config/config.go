package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT"`
	User     string `mapstructure:"user" envconfig:"DB_USER"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
	TeamTo   string `mapstructure:"team_to" envconfig:"SMTP_TEAM_TO"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret" envconfig:"JWT_SECRET"`
}

// EngineConfig carries the distribution engine thresholds. Defaults match
// production behavior; everything is overridable for tests and staging.
type EngineConfig struct {
	CandidateLimit    int           `mapstructure:"candidate_limit"`
	AlertTTL          time.Duration `mapstructure:"alert_ttl"`
	RedispatchWindow  time.Duration `mapstructure:"redispatch_window"`
	RealertThreshold  time.Duration `mapstructure:"realert_threshold"`
	NoMatchExtension  time.Duration `mapstructure:"no_match_extension"`
	UnpaidGracePeriod time.Duration `mapstructure:"unpaid_grace_period"`
	MatcherCacheTTL   time.Duration `mapstructure:"matcher_cache_ttl"`
}

type SchedulerConfig struct {
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
	HealthPort       int           `mapstructure:"health_port"`
}

func setEngineDefaults() {
	viper.SetDefault("engine.candidate_limit", 20)
	viper.SetDefault("engine.alert_ttl", 24*time.Hour)
	viper.SetDefault("engine.redispatch_window", 30*time.Minute)
	viper.SetDefault("engine.realert_threshold", 2*time.Hour)
	viper.SetDefault("engine.no_match_extension", 24*time.Hour)
	viper.SetDefault("engine.unpaid_grace_period", 30*time.Minute)
	viper.SetDefault("engine.matcher_cache_ttl", time.Minute)
	viper.SetDefault("scheduler.dispatch_interval", 2*time.Minute)
	viper.SetDefault("scheduler.cleanup_interval", 15*time.Minute)
	viper.SetDefault("scheduler.health_port", 8081)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setEngineDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets come from the environment in deployed setups.
	if err := envconfig.Process("marketplace", &config.Database); err != nil {
		return nil, fmt.Errorf("failed to process database env: %w", err)
	}
	if err := envconfig.Process("marketplace", &config.SMTP); err != nil {
		return nil, fmt.Errorf("failed to process smtp env: %w", err)
	}

	return &config, nil
}
