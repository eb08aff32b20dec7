package cmd

import (
	"fmt"
	"strings"

	"github.com/capitancloud/ai-text-companion/internal/companion/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const configFields = "configfile, backend, data_dir, sqlite_path, redis_addr, redis_password, redis_db, redis_prefix, storage_key, session_backend, session_dir, session_key, session_ttl, access_code, access_code_digest, response_dirs, thinking, typing, retention_days, log_level"

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.
Available fields: ` + configFields + `

Examples:
  companion config                 # Show all configuration
  companion config backend         # Show only the storage backend
  companion config response_dirs   # Show only response directories`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		fields := configValues(cfg)

		if len(args) > 0 {
			field := strings.ToLower(args[0])
			for _, f := range fields {
				if f.name == field {
					fmt.Println(f.value)
					return nil
				}
			}
			return fmt.Errorf("unknown field: %s\nAvailable fields: %s", args[0], configFields)
		}

		for _, f := range fields {
			fmt.Printf("%s: %s\n", f.label, f.value)
		}
		return nil
	},
}

type configField struct {
	name  string
	label string
	value string
}

// configValues lists the displayed fields in order with secrets masked
func configValues(cfg *config.Config) []configField {
	thinkingMin, thinkingMax := cfg.ThinkingDelay()
	typingMin, typingMax := cfg.TypingDelay()
	ttl := cfg.SessionTTL
	if ttl == "" {
		ttl = "until logout"
	}
	return []configField{
		{"configfile", "ConfigFile", viper.ConfigFileUsed()},
		{"backend", "Backend", cfg.Backend},
		{"data_dir", "DataDir", cfg.DataDir},
		{"sqlite_path", "SQLitePath", cfg.SQLitePath},
		{"redis_addr", "RedisAddr", cfg.RedisAddr},
		{"redis_password", "RedisPassword", maskToken(cfg.RedisPassword)},
		{"redis_db", "RedisDB", fmt.Sprintf("%d", cfg.RedisDB)},
		{"redis_prefix", "RedisPrefix", cfg.RedisPrefix},
		{"storage_key", "StorageKey", cfg.StorageKey},
		{"session_backend", "SessionBackend", cfg.SessionBackend},
		{"session_dir", "SessionDir", cfg.SessionDir},
		{"session_key", "SessionKey", cfg.SessionKey},
		{"session_ttl", "SessionTTL", ttl},
		{"access_code", "AccessCode", maskToken(cfg.AccessCode)},
		{"access_code_digest", "AccessCodeDigest", maskToken(cfg.AccessCodeDigest)},
		{"response_dirs", "ResponseDirectories", strings.Join(cfg.ResponseDirs, ",")},
		{"thinking", "ThinkingDelay", fmt.Sprintf("%s-%s", thinkingMin, thinkingMax)},
		{"typing", "TypingDelay", fmt.Sprintf("%s-%s", typingMin, typingMax)},
		{"retention_days", "RetentionDays", fmt.Sprintf("%d", cfg.RetentionDays)},
		{"log_level", "LogLevel", cfg.LogLevel},
	}
}

// maskToken returns a masked version of the token for security
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
