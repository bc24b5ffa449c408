package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"plate-watch/internal/domain/plate"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	OCR      OCRConfig      `mapstructure:"ocr"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Email    EmailConfig    `mapstructure:"email"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Camera   CameraConfig   `mapstructure:"camera"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type UploadsConfig struct {
	Dir       string `mapstructure:"dir"`
	MaxSizeMB int64  `mapstructure:"max_size_mb"`
}

type OCRConfig struct {
	PoolSize int    `mapstructure:"pool_size"`
	Language string `mapstructure:"language"`
}

type AlertsConfig struct {
	// Recipients maps a watch-list status to the notification targets for
	// that status. Unknown statuses fall back to DefaultRecipient.
	Recipients       map[string][]string `mapstructure:"recipients"`
	DefaultRecipient string              `mapstructure:"default_recipient"`
}

// RecipientsFor resolves the recipient set for a watch-list status.
func (a AlertsConfig) RecipientsFor(status plate.Status) []string {
	if rs, ok := a.Recipients[string(status)]; ok && len(rs) > 0 {
		return rs
	}
	return []string{a.DefaultRecipient}
}

type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// Enabled reports whether SMTP credentials are configured. Without them the
// email channel stays off and alerts only reach the dashboard audit trail.
func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.User != "" && e.Password != ""
}

type AuthConfig struct {
	JWTSecret            string        `mapstructure:"jwt_secret"`
	TokenTTL             time.Duration `mapstructure:"token_ttl"`
	OperatorUser         string        `mapstructure:"operator_user"`
	OperatorPasswordHash string        `mapstructure:"operator_password_hash"`
}

type CameraConfig struct {
	DefaultID int64 `mapstructure:"default_id"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.dsn", "host=localhost port=5432 user=platewatch password=platewatch dbname=platewatch sslmode=disable")
	v.SetDefault("uploads.dir", "uploads")
	v.SetDefault("uploads.max_size_mb", 10)
	v.SetDefault("ocr.pool_size", 2)
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("alerts.default_recipient", "operator@example.com")
	v.SetDefault("alerts.recipients", map[string][]string{})
	v.SetDefault("email.port", 587)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.operator_user", "operator")
	v.SetDefault("auth.operator_password_hash", "")
	v.SetDefault("camera.default_id", 1)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/plate-watch")

	v.SetEnvPrefix("PLATEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
