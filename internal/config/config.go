// FilePath: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Realtime   RealtimeConfig
	MQTT       MQTTConfig
	Simulator  SimulatorConfig
	Monitoring MonitoringConfig
	FileStore  FileStoreConfig
	Export     ExportConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type SQLiteConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port for the redis client
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RealtimeConfig struct {
	SendBuffer   int           `mapstructure:"send_buffer"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	RedisEnabled bool          `mapstructure:"redis_enabled"`
	RedisChannel string        `mapstructure:"redis_channel"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

type SimulatorConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Interval       time.Duration `mapstructure:"interval"`
	CameraInterval time.Duration `mapstructure:"camera_interval"`
}

type MonitoringConfig struct {
	MetricsPath string `mapstructure:"metrics_path"`
}

type FileStoreConfig struct {
	BasePath          string   `mapstructure:"base_path"`
	MaxFileSize       int64    `mapstructure:"max_file_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

type ExportConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured export timezone
func (c ExportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("HYDRO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	viper.SetDefault("database.driver", DriverSQLite)
	viper.SetDefault("database.sqlite.path", "hydroponics.db")
	viper.SetDefault("database.sqlite.busy_timeout", "5s")
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	// Realtime defaults
	viper.SetDefault("realtime.send_buffer", 64)
	viper.SetDefault("realtime.ping_period", "25s")
	viper.SetDefault("realtime.redis_enabled", false)
	viper.SetDefault("realtime.redis_channel", "hydrohub:realtime")

	// MQTT defaults
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.client_id", "hydrohub")
	viper.SetDefault("mqtt.topic_prefix", "hydro")
	viper.SetDefault("mqtt.qos", 1)

	// Simulator defaults
	viper.SetDefault("simulator.enabled", true)
	viper.SetDefault("simulator.interval", "30s")
	viper.SetDefault("simulator.camera_interval", "300s")

	// Monitoring defaults
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// FileStore defaults
	viper.SetDefault("filestore.base_path", "camera_images")
	viper.SetDefault("filestore.max_file_size", 10*1024*1024) // 10MB
	viper.SetDefault("filestore.allowed_extensions", []string{"png", "jpg", "jpeg", "gif"})

	viper.SetDefault("export.timezone", "Local")
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverSQLite:
		if config.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DriverPostgres:
		if config.Database.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}
	if config.FileStore.BasePath == "" {
		return fmt.Errorf("filestore base path is required")
	}
	if len(config.FileStore.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one allowed image extension is required")
	}
	if config.Simulator.Enabled && config.Simulator.Interval <= 0 {
		return fmt.Errorf("simulator interval must be positive")
	}
	if config.Simulator.CameraInterval > 0 && config.Simulator.CameraInterval%time.Second != 0 {
		return fmt.Errorf("simulator camera interval must be a whole number of seconds")
	}
	if config.MQTT.Enabled && config.MQTT.Broker == "" {
		return fmt.Errorf("mqtt broker is required when mqtt is enabled")
	}
	if _, err := config.Export.Location(); err != nil {
		return fmt.Errorf("invalid export timezone: %w", err)
	}
	return nil
}
