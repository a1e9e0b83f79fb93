package cmd

import (
	"fmt"
	"os"

	"github.com/kayz/tokenbrush/internal/config"
	"github.com/kayz/tokenbrush/internal/logger"
	"github.com/spf13/cobra"
)

var (
	logLevel    string
	configPath  string
	autoApprove bool
)

var rootCmd = &cobra.Command{
	Use:   "tokenbrush",
	Short: "AI portrait and token art for tabletop characters",
	Long: `tokenbrush turns a character sheet into portrait and token artwork:

  1. Build a structured visual description from the sheet
  2. Optionally refine it with a language model
  3. Review and edit the prompt
  4. Generate the image, fetch it, store it, and update the character record`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error, fatal, panic")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file path (default: .tokenbrush.yaml next to the executable)")
	rootCmd.PersistentFlags().BoolVarP(&autoApprove, "yes", "y", false,
		"Skip the prompt review step and generate immediately")
}

// loadConfig loads the active config file, honoring --config
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

// saveConfig writes the config back to its source path
func saveConfig(cfg *config.Config) error {
	if configPath != "" {
		return cfg.SaveToPath(configPath)
	}
	return cfg.Save()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
