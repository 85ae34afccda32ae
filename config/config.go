// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"bitwise74/share-api/pkg/util"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

const gib = 1 << 30

var (
	configPath       = pflag.String("config", "", "Path to the config.toml file")
	Reclaim          = pflag.Bool("reclaim", false, "Runs a single reclamation sweep and exits")
	ReclaimSchedule  = pflag.String("reclaim-schedule", "", "Runs reclamation sweeps on a cron schedule instead of serving HTTP")
	validLogLevels   = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers   = []string{"sqlite", "postgres"}
	errSecretMissing = errors.New("jwt secret is missing")
)

// Config is the read-only configuration handed to every component once
// Setup has validated the raw values
type Config struct {
	App      App
	Host     Host
	Database Database
	JWT      JWT
	Security Security
	Storage  Storage
	Upload   Upload
	Reclaim  ReclaimOpts
	Cache    Cache
}

type App struct {
	LogLevel string
}

type Host struct {
	Port        int
	Domain      string
	CORSOrigins []string
	SSLEnabled  bool
}

type Database struct {
	Driver string
	DSN    string
}

type JWT struct {
	Secret string
}

type Security struct {
	CronSecret      string
	IPSalt          string
	RateLimit       int
	TurnstileSecret string
}

// StorageAccount describes one bucket of the storage pool. Driver is "r2"
// (the default) or "s3compat" for self-hosted servers
type StorageAccount struct {
	Key             string `mapstructure:"key"`
	Driver          string `mapstructure:"driver"`
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
}

type Storage struct {
	Accounts        []StorageAccount
	AccountCapBytes int64
	DefaultQuota    int64
	StrictResolve   bool
}

type Upload struct {
	MaxSize      int64
	AllowedTypes []string
}

// Cache picks the store behind cached responses. An empty RedisURL keeps
// them in process memory
type Cache struct {
	RedisURL string
	TTL      time.Duration
}

type ReclaimOpts struct {
	RetentionDays int
	Workers       int
	Timeout       time.Duration
	Schedule      string
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()

	bindEnvs()
	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	util.MakeLogger(v.GetString("app.log_level"))

	err := validate()
	if errors.Is(err, errSecretMissing) {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return err
}

func bindEnvs() {
	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors_origins", "host_cors")
	v.BindEnv("host.ssl_enabled", "host_ssl_enabled")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("security.cron_secret", "cron_secret")
	v.BindEnv("security.ip_salt", "security_ip_salt")
	v.BindEnv("security.rate_limit", "security_rate_limit")
	v.BindEnv("security.turnstile_secret", "turnstile_secret_token")

	v.BindEnv("storage.account_cap_gb", "storage_account_cap_gb")
	v.BindEnv("storage.default_quota_gb", "storage_default_quota_gb")
	v.BindEnv("storage.strict_resolve", "storage_strict_resolve")

	v.BindEnv("upload.max_size", "upload_max_size")
	v.BindEnv("upload.allowed_types", "upload_allowed_types")

	v.BindEnv("cloudflare.account_id", "cloudflare_account_id")
	v.BindEnv("cloudflare.access_key_id", "cloudflare_access_key_id")
	v.BindEnv("cloudflare.secret_access_key", "cloudflare_secret_access_key")
	v.BindEnv("cloudflare.bucket", "cloudflare_bucket")
	v.BindEnv("cloudflare.public_base_url", "cloudflare_public_base_url")

	v.BindEnv("reclaim.retention_days", "orphan_file_retention_days")
	v.BindEnv("reclaim.workers", "reclaim_workers")
	v.BindEnv("reclaim.schedule", "reclaim_schedule")

	v.BindEnv("cache.redis_url", "cache_redis_url")
}

func setDefaults() {
	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("storage.account_cap_gb", 10)
	v.SetDefault("storage.default_quota_gb", 5)
	v.SetDefault("storage.strict_resolve", false)

	v.SetDefault("upload.max_size", 100)

	v.SetDefault("reclaim.retention_days", 30)
	v.SetDefault("reclaim.workers", 4)
	v.SetDefault("reclaim.timeout", "10m")

	v.SetDefault("cache.ttl", "1m")
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDBDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database dsn can't be empty")
	}

	if v.GetString("jwt.secret") == "" {
		return errSecretMissing
	}

	if v.GetString("security.cron_secret") == "" {
		zap.L().Warn("No security.cron_secret specified, the cleanup endpoints will reject every request")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if len(v.GetStringSlice("upload.allowed_types")) == 0 {
		zap.L().Warn("No upload.allowed_types specified, the built-in allow-list will be used")
	}

	if v.GetInt64("storage.account_cap_gb") <= 0 {
		return errors.New("storage.account_cap_gb must be bigger than 0")
	}

	if v.GetInt64("storage.default_quota_gb") <= 0 {
		return errors.New("storage.default_quota_gb must be bigger than 0")
	}

	if !v.IsSet("storage.accounts") {
		if v.GetString("cloudflare.account_id") == "" {
			return errors.New("account id can't be empty")
		}
		if v.GetString("cloudflare.access_key_id") == "" {
			return errors.New("account access id can't be empty")
		}
		if v.GetString("cloudflare.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("cloudflare.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	}

	if v.GetInt("reclaim.retention_days") < 0 {
		return errors.New("reclaim.retention_days can't be negative")
	}

	if v.GetInt("reclaim.workers") <= 0 {
		return errors.New("reclaim.workers must be bigger than 0")
	}

	if v.GetDuration("reclaim.timeout") <= 0 {
		return errors.New("reclaim.timeout must be a positive duration")
	}

	if v.GetDuration("cache.ttl") <= 0 {
		return errors.New("cache.ttl must be a positive duration")
	}

	return nil
}

// Load builds the typed configuration from the values validated in Setup.
// Storage accounts are validated later by the storage pool since that's
// where the rules about keys and buckets live.
func Load() (*Config, error) {
	var accounts []StorageAccount
	if v.IsSet("storage.accounts") {
		if err := v.UnmarshalKey("storage.accounts", &accounts); err != nil {
			return nil, fmt.Errorf("failed to parse storage.accounts, %w", err)
		}
	} else {
		accounts = []StorageAccount{{
			Key:             "primary",
			AccountID:       v.GetString("cloudflare.account_id"),
			AccessKeyID:     v.GetString("cloudflare.access_key_id"),
			SecretAccessKey: v.GetString("cloudflare.secret_access_key"),
			Bucket:          v.GetString("cloudflare.bucket"),
			PublicBaseURL:   v.GetString("cloudflare.public_base_url"),
		}}
	}

	schedule := v.GetString("reclaim.schedule")
	if *ReclaimSchedule != "" {
		schedule = *ReclaimSchedule
	}

	return &Config{
		App: App{
			LogLevel: v.GetString("app.log_level"),
		},
		Host: Host{
			Port:        v.GetInt("host.port"),
			Domain:      v.GetString("host.domain"),
			CORSOrigins: splitList(v.GetStringSlice("host.cors_origins")),
			SSLEnabled:  v.GetBool("host.ssl_enabled"),
		},
		Database: Database{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		JWT: JWT{
			Secret: v.GetString("jwt.secret"),
		},
		Security: Security{
			CronSecret:      v.GetString("security.cron_secret"),
			IPSalt:          v.GetString("security.ip_salt"),
			RateLimit:       v.GetInt("security.rate_limit"),
			TurnstileSecret: v.GetString("security.turnstile_secret"),
		},
		Storage: Storage{
			Accounts:        accounts,
			AccountCapBytes: v.GetInt64("storage.account_cap_gb") * gib,
			DefaultQuota:    v.GetInt64("storage.default_quota_gb") * gib,
			StrictResolve:   v.GetBool("storage.strict_resolve"),
		},
		Upload: Upload{
			MaxSize:      v.GetInt64("upload.max_size") << 20,
			AllowedTypes: splitList(v.GetStringSlice("upload.allowed_types")),
		},
		Reclaim: ReclaimOpts{
			RetentionDays: v.GetInt("reclaim.retention_days"),
			Workers:       v.GetInt("reclaim.workers"),
			Timeout:       v.GetDuration("reclaim.timeout"),
			Schedule:      schedule,
		},
		Cache: Cache{
			RedisURL: v.GetString("cache.redis_url"),
			TTL:      v.GetDuration("cache.ttl"),
		},
	}, nil
}

// Env values arrive as a single comma separated string
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}
