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

	s "ezyassist/pkg/string"
)

// Config is the full process configuration. Defaults are applied first, then
// an optional YAML file, then an optional .env file, then the environment.
type Config struct {
	Server       Server       `yaml:"server"`
	Tokens       Tokens       `yaml:"tokens"`
	Conversation Conversation `yaml:"conversation"`
	Generative   Generative   `yaml:"generative"`
	Telegram     Telegram     `yaml:"telegram"`
	Admin        Admin        `yaml:"admin"`
	Database     Database     `yaml:"database"`
	Redis        Redis        `yaml:"redis"`
	Kafka        Kafka        `yaml:"kafka"`
	LogLevel     string       `yaml:"log_level"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	BaseURL         string        `yaml:"base_url"`
	UploadDir       string        `yaml:"upload_dir"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	TrustProxy      bool          `yaml:"trust_proxy"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Tokens configures registration link signing and lifetimes.
type Tokens struct {
	SigningKey      string        `yaml:"signing_key"`
	FormTimeout     time.Duration `yaml:"form_timeout"`
	ResubmissionTTL time.Duration `yaml:"resubmission_ttl"`
}

type Conversation struct {
	EngagementThreshold int    `yaml:"engagement_threshold"`
	DefaultLanguage     string `yaml:"default_language"`
}

// Generative configures the hosted language model used for open-ended replies.
type Generative struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float32       `yaml:"temperature"`
}

// Telegram selects webhook mode when WebhookURL is set, long polling otherwise.
type Telegram struct {
	BotToken      string `yaml:"bot_token"`
	WebhookURL    string `yaml:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret"`
	AdminChatID   int64  `yaml:"admin_chat_id"`
	Workers       int    `yaml:"workers"`
}

type Admin struct {
	Username     string        `yaml:"username"`
	PasswordHash string        `yaml:"password_hash"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
}

type Database struct {
	URL string `yaml:"url"`
}

type Redis struct {
	URL           string        `yaml:"url"`
	EngagementTTL time.Duration `yaml:"engagement_ttl"`
}

type Kafka struct {
	Brokers    []string `yaml:"brokers"`
	AuditTopic string   `yaml:"audit_topic"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			BaseURL:         "http://localhost:8080",
			UploadDir:       "uploads",
			MaxUploadBytes:  10 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Tokens: Tokens{
			FormTimeout:     30 * time.Minute,
			ResubmissionTTL: 7 * 24 * time.Hour,
		},
		Conversation: Conversation{
			EngagementThreshold: 3,
			DefaultLanguage:     "ms",
		},
		Generative: Generative{
			Model:       "gemini-2.0-flash",
			Timeout:     15 * time.Second,
			Temperature: 0.7,
		},
		Telegram: Telegram{
			Workers: 16,
		},
		Redis: Redis{
			EngagementTTL: 30 * 24 * time.Hour,
		},
		Admin: Admin{
			Username:   "admin@ezymeta.global",
			SessionTTL: time.Hour,
		},
		Kafka: Kafka{
			AuditTopic: "ezyassist.audit",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration. The YAML path comes from EZYASSIST_CONFIG
// (default config.yaml); a missing file is not an error.
func Load() (*Config, error) {
	cfg := Defaults()

	path := os.Getenv("EZYASSIST_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "ADDR")
	setString(&cfg.Server.BaseURL, "BASE_URL")
	setString(&cfg.Server.UploadDir, "UPLOAD_DIR")
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRUST_PROXY: %w", err)
		}
		cfg.Server.TrustProxy = b
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	setString(&cfg.Tokens.SigningKey, "JWT_SECRET_KEY")
	if v := os.Getenv("FORM_TIMEOUT_MINUTES"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return fmt.Errorf("FORM_TIMEOUT_MINUTES must be a positive integer, got %q", v)
		}
		cfg.Tokens.FormTimeout = time.Duration(minutes) * time.Minute
	}
	if err := setDuration(&cfg.Tokens.ResubmissionTTL, "RESUBMISSION_TTL"); err != nil {
		return err
	}

	if err := setInt(&cfg.Conversation.EngagementThreshold, "ENGAGEMENT_THRESHOLD"); err != nil {
		return err
	}
	setString(&cfg.Conversation.DefaultLanguage, "DEFAULT_LANGUAGE")

	setString(&cfg.Generative.APIKey, "GENAI_API_KEY")
	setString(&cfg.Generative.Model, "GENAI_MODEL")
	if err := setDuration(&cfg.Generative.Timeout, "GENAI_TIMEOUT"); err != nil {
		return err
	}

	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.WebhookURL, "TELEGRAM_WEBHOOK_URL")
	setString(&cfg.Telegram.WebhookSecret, "TELEGRAM_WEBHOOK_SECRET")
	if v := os.Getenv("ADMIN_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("ADMIN_CHAT_ID: %w", err)
		}
		cfg.Telegram.AdminChatID = id
	}

	setString(&cfg.Admin.Username, "ADMIN_USERNAME")
	setString(&cfg.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")
	if err := setDuration(&cfg.Admin.SessionTTL, "ADMIN_SESSION_TTL"); err != nil {
		return err
	}

	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	if err := setDuration(&cfg.Redis.EngagementTTL, "ENGAGEMENT_TTL"); err != nil {
		return err
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = s.SplitList(v)
	}
	setString(&cfg.Kafka.AuditTopic, "KAFKA_AUDIT_TOPIC")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
