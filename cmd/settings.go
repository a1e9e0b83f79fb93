package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/kayz/tokenbrush/internal/config"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write operator settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a setting, or all settings when no key is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		values := settingValues(cfg)
		if len(args) == 1 {
			v, ok := values[args[0]]
			if !ok {
				return fmt.Errorf("unknown setting: %s", args[0])
			}
			fmt.Println(v)
			return nil
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := values[k]
			if k == "ai.api_key" || k == "ai.anthropic_api_key" {
				v = redact(v)
			}
			fmt.Printf("%s = %s\n", k, v)
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting and save the config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := setSetting(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := saveConfig(cfg); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func settingValues(cfg *config.Config) map[string]string {
	return map[string]string{
		"ai.api_key":                cfg.AI.APIKey,
		"ai.base_url":               cfg.AI.BaseURL,
		"ai.refine_provider":        cfg.AI.RefineProvider,
		"ai.anthropic_api_key":      cfg.AI.AnthropicAPIKey,
		"ai.text_model":             cfg.AI.TextModel,
		"ai.image_model":            cfg.AI.ImageModel,
		"ai.prompt_max_chars":       strconv.Itoa(cfg.AI.PromptMaxChars),
		"ai.requests_per_minute":    strconv.Itoa(cfg.AI.RequestsPerMinute),
		"prompt.system_instruction": cfg.Prompt.SystemInstruction,
		"prompt.style_suffix":       cfg.Prompt.StyleSuffix,
		"prompt.token_style_suffix": cfg.Prompt.TokenStyleSuffix,
		"relay.base_url":            cfg.Relay.BaseURL,
		"storage.dir":               cfg.Storage.Dir,
		"storage.db_path":           cfg.Storage.DBPath,
		"storage.overwrite":         strconv.FormatBool(cfg.Storage.Overwrite),
		"logging.level":             cfg.Logging.Level,
	}
}

func setSetting(cfg *config.Config, key, value string) error {
	switch key {
	case "ai.api_key":
		cfg.AI.APIKey = value
	case "ai.base_url":
		cfg.AI.BaseURL = value
	case "ai.refine_provider":
		cfg.AI.RefineProvider = value
	case "ai.anthropic_api_key":
		cfg.AI.AnthropicAPIKey = value
	case "ai.text_model":
		cfg.AI.TextModel = value
	case "ai.image_model":
		cfg.AI.ImageModel = value
	case "ai.prompt_max_chars":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ai.prompt_max_chars must be an integer")
		}
		cfg.AI.PromptMaxChars = n
	case "ai.requests_per_minute":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ai.requests_per_minute must be an integer")
		}
		cfg.AI.RequestsPerMinute = n
	case "prompt.system_instruction":
		cfg.Prompt.SystemInstruction = value
	case "prompt.style_suffix":
		cfg.Prompt.StyleSuffix = value
	case "prompt.token_style_suffix":
		cfg.Prompt.TokenStyleSuffix = value
	case "relay.base_url":
		cfg.Relay.BaseURL = value
	case "storage.dir":
		cfg.Storage.Dir = value
	case "storage.db_path":
		cfg.Storage.DBPath = value
	case "storage.overwrite":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("storage.overwrite must be true or false")
		}
		cfg.Storage.Overwrite = b
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
