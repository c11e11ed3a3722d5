package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Mount     MountConfig     `mapstructure:"mount"`
	Editor    EditorConfig    `mapstructure:"editor"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	TempoAddr   string  `mapstructure:"tempo_addr"`
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File enables a rotated log file next to stdout when set.
	File string `mapstructure:"file"`
}

// MountConfig locates the mount controller.
type MountConfig struct {
	ControllerURL string        `mapstructure:"controller_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
}

// EditorConfig tunes interactive editor sessions.
type EditorConfig struct {
	CanvasSize   int           `mapstructure:"canvas_size"`
	CanvasMargin float64       `mapstructure:"canvas_margin"`
	SaveDelay    time.Duration `mapstructure:"save_delay"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	FrameRate    int           `mapstructure:"frame_rate"`
	FrameCache   int           `mapstructure:"frame_cache"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	Enabled   bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mount")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "horizonmask")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("mount.controller_url", "http://localhost:8090")
	v.SetDefault("mount.timeout", 3*time.Second)
	v.SetDefault("mount.poll_interval", time.Second)
	v.SetDefault("editor.canvas_size", 400)
	v.SetDefault("editor.canvas_margin", 20)
	v.SetDefault("editor.save_delay", 500*time.Millisecond)
	v.SetDefault("editor.retry_delay", 5*time.Second)
	v.SetDefault("editor.poll_interval", time.Second)
	v.SetDefault("editor.frame_rate", 30)
	v.SetDefault("editor.frame_cache", 256)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "mount-sync")
	v.SetDefault("temporal.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: HORIZONMASK_DATABASE_HOST → database.host
	v.SetEnvPrefix("HORIZONMASK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Sprintf("telemetry.sample_ratio must be within [0, 1], got %g", c.Telemetry.SampleRatio))
	}
	if c.Mount.ControllerURL == "" {
		errs = append(errs, "mount.controller_url is required")
	}
	if c.Mount.PollInterval <= 0 {
		errs = append(errs, "mount.poll_interval must be positive")
	}
	if c.Editor.CanvasSize < 64 {
		errs = append(errs, fmt.Sprintf("editor.canvas_size must be at least 64, got %d", c.Editor.CanvasSize))
	}
	if c.Editor.CanvasMargin < 0 || c.Editor.CanvasMargin*2 >= float64(c.Editor.CanvasSize) {
		errs = append(errs, "editor.canvas_margin must leave room for the plot")
	}
	if c.Editor.SaveDelay <= 0 {
		errs = append(errs, "editor.save_delay must be positive")
	}
	if c.Editor.RetryDelay <= 0 {
		errs = append(errs, "editor.retry_delay must be positive")
	}
	if c.Editor.FrameRate <= 0 || c.Editor.FrameRate > 120 {
		errs = append(errs, fmt.Sprintf("editor.frame_rate must be 1-120, got %d", c.Editor.FrameRate))
	}
	if c.Temporal.Enabled && c.Temporal.TaskQueue == "" {
		errs = append(errs, "temporal.task_queue is required when temporal is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
