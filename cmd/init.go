package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/capitancloud/ai-text-companion/internal/companion/config"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file",
	Long: `Initialize the configuration file with default settings.
The config file will be created at $HOME/.config/companion/config.toml by default.
You can specify a different location using the --config option.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := filepath.Join(userConfigDir(), "config.toml")
		if cfgFile != "" {
			configFile = cfgFile
		}

		configDir := filepath.Dir(configFile)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %v", err)
		}

		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("config file already exists at: %s", configFile)
		}

		cfg := config.NewDefaultConfig(configDir)
		// Relative paths are resolved against the config file directory
		cfg.DataDir = "data"
		cfg.SQLitePath = "companion.db"
		cfg.ResponseDirs = []string{"responses"}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("failed to create config file: %v", err)
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config: %v", err)
		}

		responsesDir := filepath.Join(configDir, "responses")
		if err := os.MkdirAll(responsesDir, 0755); err != nil {
			return fmt.Errorf("failed to create responses directory: %v", err)
		}

		fmt.Printf("Configuration file created at: %s\n", configFile)
		fmt.Printf("Responses directory created at: %s\n", responsesDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
