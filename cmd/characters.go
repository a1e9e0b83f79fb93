package cmd

import (
	"fmt"

	"github.com/kayz/tokenbrush/internal/character"
	"github.com/kayz/tokenbrush/internal/prompt"
	"github.com/spf13/cobra"
)

var charactersCmd = &cobra.Command{
	Use:   "characters",
	Short: "Manage the character store",
}

var charactersImportCmd = &cobra.Command{
	Use:   "import <file.json> [file.json...]",
	Short: "Import character sheet JSON files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		for _, path := range args {
			rec, err := character.LoadRecord(path)
			if err != nil {
				return err
			}
			if err := store.Upsert(rec); err != nil {
				return fmt.Errorf("importing %s: %w", path, err)
			}
			fmt.Printf("imported %s (id: %s)\n", rec.Name, rec.ID)
		}
		return nil
	},
}

var charactersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored characters",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		recs, err := store.List()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no characters in the store")
			return nil
		}
		for _, rec := range recs {
			art := ""
			if rec.PortraitPath != "" {
				art = "  portrait: " + rec.PortraitPath
			}
			if rec.TokenPath != "" {
				art += "  token: " + rec.TokenPath
			}
			fmt.Printf("%-20s %s%s\n", rec.ID, rec.Name, art)
		}
		return nil
	},
}

var charactersShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the structured description built for a character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(args[0])
		if err != nil {
			return fmt.Errorf("character %q not found", args[0])
		}
		fmt.Println(prompt.Build(rec))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(charactersCmd)
	charactersCmd.AddCommand(charactersImportCmd)
	charactersCmd.AddCommand(charactersListCmd)
	charactersCmd.AddCommand(charactersShowCmd)
}

func openStore() (*character.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return character.NewStore(cfg.Storage.DBPath)
}
