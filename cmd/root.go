/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/capitancloud/ai-text-companion/internal/companion/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "companion",
	Short: "An educational AI chat companion that never calls a real AI",
	Long: `companion shows how an application talks to an AI text-generation API
without making a single network call. Replies are canned strings picked by
keyword and "typed" out character by character, the way a streaming API
response would arrive.

Conversations are kept in a local store (file, sqlite, redis or memory).
Access is gated by a shared access code; run 'companion login' first.
You can configure the tool using a TOML configuration file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/companion/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// userConfigDir returns $HOME/.config/companion
func userConfigDir() string {
	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	return filepath.Join(home, ".config", "companion")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("COMPANION")
	viper.AutomaticEnv()

	configDir := userConfigDir()
	defaultConfig := config.NewDefaultConfig(configDir)

	// Later directories in the list take precedence over earlier ones
	defaultResponseDirs := []string{
		"/usr/share/companion/responses",
		"/usr/local/share/companion/responses",
		filepath.Join(configDir, "responses"),
	}

	viper.SetDefault("backend", defaultConfig.Backend)
	viper.SetDefault("data_dir", defaultConfig.DataDir)
	viper.SetDefault("sqlite_path", defaultConfig.SQLitePath)
	viper.SetDefault("redis_addr", defaultConfig.RedisAddr)
	viper.SetDefault("redis_password", defaultConfig.RedisPassword)
	viper.SetDefault("redis_db", defaultConfig.RedisDB)
	viper.SetDefault("redis_prefix", defaultConfig.RedisPrefix)
	viper.SetDefault("storage_key", defaultConfig.StorageKey)
	viper.SetDefault("session_backend", defaultConfig.SessionBackend)
	viper.SetDefault("session_dir", defaultConfig.SessionDir)
	viper.SetDefault("session_key", defaultConfig.SessionKey)
	viper.SetDefault("session_ttl", defaultConfig.SessionTTL)
	viper.SetDefault("access_code", defaultConfig.AccessCode)
	viper.SetDefault("access_code_digest", defaultConfig.AccessCodeDigest)
	viper.SetDefault("response_dirs", defaultResponseDirs)
	viper.SetDefault("thinking_min_ms", defaultConfig.ThinkingMinMS)
	viper.SetDefault("thinking_max_ms", defaultConfig.ThinkingMaxMS)
	viper.SetDefault("typing_min_ms", defaultConfig.TypingMinMS)
	viper.SetDefault("typing_max_ms", defaultConfig.TypingMaxMS)
	viper.SetDefault("retention_days", defaultConfig.RetentionDays)
	viper.SetDefault("log_level", defaultConfig.LogLevel)

	// Bind environment variables
	viper.BindEnv("access_code", "COMPANION_ACCESS_CODE")
	viper.BindEnv("access_code_digest", "COMPANION_ACCESS_CODE_DIGEST")
	viper.BindEnv("backend", "COMPANION_BACKEND")
	viper.BindEnv("redis_addr", "COMPANION_REDIS_ADDR")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	} else {
		// Load system-wide config first (lower priority)
		for _, path := range []string{"/etc/companion", "/usr/local/etc/companion"} {
			viper.AddConfigPath(path)
		}
		viper.SetConfigType("toml")
		viper.SetConfigName("config")

		systemConfigLoaded := false
		if err := viper.ReadInConfig(); err == nil {
			systemConfigLoaded = true
			if verbose {
				fmt.Fprintln(os.Stderr, "Loaded system-wide config:", viper.ConfigFileUsed())
			}
		}

		// Load user config (higher priority) - merge with system config
		viper.AddConfigPath(configDir)
		if systemConfigLoaded {
			if err := viper.MergeInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error merging user config file: %v\n", err)
				}
			} else if verbose {
				fmt.Fprintln(os.Stderr, "Merged user config:", viper.ConfigFileUsed())
			}
		} else {
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
				}
			}
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		fmt.Fprintln(os.Stderr, "  COMPANION_BACKEND:", viper.GetString("backend"))
		fmt.Fprintln(os.Stderr, "  COMPANION_SESSION_BACKEND:", viper.GetString("session_backend"))
		fmt.Fprintln(os.Stderr, "  COMPANION_RESPONSE_DIRS:", viper.GetStringSlice("response_dirs"))
	}
}
