package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/capitancloud/ai-text-companion/internal/companion/storage"
	"github.com/spf13/viper"
)

// DefaultAccessCode is the shared passphrase shipped with the demo.
const DefaultAccessCode = "gT6@Qp!R1Z$uN9e#X^cD2sL%hY&vJm*W+K7B~A=F4q-Uo_rP)k8S]3C0{I?E"

// Config holds the companion configuration
type Config struct {
	Backend          string   `toml:"backend" mapstructure:"backend"` // "file", "sqlite", "redis" or "memory"
	DataDir          string   `toml:"data_dir" mapstructure:"data_dir"`
	SQLitePath       string   `toml:"sqlite_path" mapstructure:"sqlite_path"`
	RedisAddr        string   `toml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword    string   `toml:"redis_password" mapstructure:"redis_password"`
	RedisDB          int      `toml:"redis_db" mapstructure:"redis_db"`
	RedisPrefix      string   `toml:"redis_prefix" mapstructure:"redis_prefix"`
	StorageKey       string   `toml:"storage_key" mapstructure:"storage_key"`
	SessionBackend   string   `toml:"session_backend" mapstructure:"session_backend"`
	SessionDir       string   `toml:"session_dir" mapstructure:"session_dir"`
	SessionKey       string   `toml:"session_key" mapstructure:"session_key"`
	SessionTTL       string   `toml:"session_ttl" mapstructure:"session_ttl"` // Go duration, "" = until logout
	AccessCode       string   `toml:"access_code" mapstructure:"access_code"`
	AccessCodeDigest string   `toml:"access_code_digest" mapstructure:"access_code_digest"` // takes precedence over access_code
	ResponseDirs     []string `toml:"response_dirs" mapstructure:"response_dirs"`
	ThinkingMinMS    int      `toml:"thinking_min_ms" mapstructure:"thinking_min_ms"`
	ThinkingMaxMS    int      `toml:"thinking_max_ms" mapstructure:"thinking_max_ms"`
	TypingMinMS      int      `toml:"typing_min_ms" mapstructure:"typing_min_ms"`
	TypingMaxMS      int      `toml:"typing_max_ms" mapstructure:"typing_max_ms"`
	RetentionDays    int      `toml:"retention_days" mapstructure:"retention_days"` // Number of days "conversations clear" keeps (default: 30)
	LogLevel         string   `toml:"log_level" mapstructure:"log_level"`
}

// DefaultSessionDir returns the per-user temporary directory holding the
// session token for the file backend. It does not survive a reboot.
func DefaultSessionDir() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("ai-text-companion-%d", os.Getuid()))
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(configDir string) *Config {
	return &Config{
		Backend:          storage.KindFile,
		DataDir:          filepath.Join(configDir, "data"),
		SQLitePath:       filepath.Join(configDir, "companion.db"),
		RedisAddr:        "localhost:6379",
		RedisPassword:    "$COMPANION_REDIS_PASSWORD",
		RedisDB:          0,
		RedisPrefix:      "companion:",
		StorageKey:       "ai-text-companion-conversations",
		SessionBackend:   storage.KindFile,
		SessionDir:       DefaultSessionDir(),
		SessionKey:       "edu_auth_token",
		SessionTTL:       "",
		AccessCode:       DefaultAccessCode,
		AccessCodeDigest: "",
		ResponseDirs:     []string{filepath.Join(configDir, "responses")},
		ThinkingMinMS:    1000,
		ThinkingMaxMS:    2000,
		TypingMinMS:      20,
		TypingMaxMS:      50,
		RetentionDays:    30,
		LogLevel:         "warn",
	}
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	// Secrets may reference environment variables
	for _, secret := range []*string{&config.AccessCode, &config.AccessCodeDigest, &config.RedisPassword} {
		expanded, err := expandEnvVar(*secret)
		if err != nil {
			return nil, err
		}
		*secret = expanded
	}

	// Convert paths to absolute paths
	for _, p := range []*string{&config.DataDir, &config.SQLitePath, &config.SessionDir} {
		if *p == "" {
			continue
		}
		absPath, err := ResolvePath(*p)
		if err != nil {
			return nil, fmt.Errorf("error resolving path '%s': %v", *p, err)
		}
		*p = absPath
	}
	for i, dir := range config.ResponseDirs {
		absPath, err := ResolvePath(dir)
		if err != nil {
			return nil, fmt.Errorf("error resolving response directory path '%s': %v", dir, err)
		}
		config.ResponseDirs[i] = absPath
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.ThinkingMinMS < 0 || c.ThinkingMaxMS < c.ThinkingMinMS {
		return fmt.Errorf("invalid thinking delay range: [%d, %d)", c.ThinkingMinMS, c.ThinkingMaxMS)
	}
	if c.TypingMinMS < 0 || c.TypingMaxMS < c.TypingMinMS {
		return fmt.Errorf("invalid typing delay range: [%d, %d)", c.TypingMinMS, c.TypingMaxMS)
	}
	if _, err := c.GetSessionTTL(); err != nil {
		return err
	}
	if c.AccessCode == "" && c.AccessCodeDigest == "" {
		return fmt.Errorf("access code is not configured. Set access_code or access_code_digest in config file or COMPANION_ACCESS_CODE")
	}
	return nil
}

// GetSessionTTL parses SessionTTL. An empty value means no expiry.
func (c *Config) GetSessionTTL() (time.Duration, error) {
	if c.SessionTTL == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session_ttl %q: %v", c.SessionTTL, err)
	}
	return ttl, nil
}

// ThinkingDelay returns the thinking delay range
func (c *Config) ThinkingDelay() (time.Duration, time.Duration) {
	return time.Duration(c.ThinkingMinMS) * time.Millisecond, time.Duration(c.ThinkingMaxMS) * time.Millisecond
}

// TypingDelay returns the per-character delay range
func (c *Config) TypingDelay() (time.Duration, time.Duration) {
	return time.Duration(c.TypingMinMS) * time.Millisecond, time.Duration(c.TypingMaxMS) * time.Millisecond
}

// StorageOptions returns the options for the conversation backend
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Kind:          c.Backend,
		Dir:           c.DataDir,
		SQLitePath:    c.SQLitePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
	}
}

// SessionStorageOptions returns the options for the session token backend.
// The file backend keeps the token in SessionDir; the others share the
// conversation backend settings.
func (c *Config) SessionStorageOptions() storage.Options {
	opts := c.StorageOptions()
	opts.Kind = c.SessionBackend
	opts.Dir = c.SessionDir
	return opts
}
