package cmd

import (
	"fmt"

	"github.com/kayz/tokenbrush/internal/character"
	"github.com/kayz/tokenbrush/internal/config"
	"github.com/kayz/tokenbrush/internal/imagegen"
	"github.com/kayz/tokenbrush/internal/pipeline"
	"github.com/kayz/tokenbrush/internal/publish"
	"github.com/kayz/tokenbrush/internal/refine"
	"github.com/kayz/tokenbrush/internal/relayclient"
	"github.com/spf13/cobra"
)

var (
	generateCharacterID string
	generateFile        string
	generateKind        string
	generateEncoding    string
	generateNoRefine    bool
	generateOverwrite   bool
	generateRelayURL    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate portrait or token art for a character",
	Long: `Generate artwork for a character from the store (--character) or
directly from a character sheet JSON file (--file).

Examples:
  tokenbrush generate --character elora
  tokenbrush generate --file elora.json --kind both
  tokenbrush generate --character elora --kind token --no-refine -y`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&generateCharacterID, "character", "c", "",
		"Character ID in the store")
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "",
		"Character sheet JSON file (imported into the store before generating)")
	generateCmd.Flags().StringVarP(&generateKind, "kind", "k", "portrait",
		"Asset kind: portrait, token or both")
	generateCmd.Flags().StringVar(&generateEncoding, "encoding", "b64_json",
		"Image reference encoding: url or b64_json")
	generateCmd.Flags().BoolVar(&generateNoRefine, "no-refine", false,
		"Skip the LLM refinement stage")
	generateCmd.Flags().BoolVar(&generateOverwrite, "overwrite", false,
		"Reuse a stable filename instead of minting a fresh one")
	generateCmd.Flags().StringVar(&generateRelayURL, "relay", "",
		"Relay base URL for fetching remote image URLs (overrides config)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if generateOverwrite {
		cfg.Storage.Overwrite = true
	}
	if generateRelayURL != "" {
		cfg.Relay.BaseURL = generateRelayURL
	}

	kinds, err := pipeline.ParseKinds(generateKind)
	if err != nil {
		return err
	}
	encoding, err := parseEncoding(generateEncoding)
	if err != nil {
		return err
	}

	store, err := character.NewStore(cfg.Storage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := resolveCharacter(store)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, store)
	if err != nil {
		return err
	}

	result, err := p.Run(cmd.Context(), pipeline.Request{
		Record:     rec,
		Kinds:      kinds,
		Encoding:   encoding,
		SkipRefine: generateNoRefine,
	})
	if err != nil {
		return err
	}

	for slot, path := range result.Paths {
		fmt.Printf("%s: %s\n", slot, path)
	}
	return nil
}

// resolveCharacter loads the target character, importing a sheet file into
// the store first when --file is given.
func resolveCharacter(store *character.Store) (*character.Record, error) {
	if generateFile != "" {
		rec, err := character.LoadRecord(generateFile)
		if err != nil {
			return nil, err
		}
		if err := store.Upsert(rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	if generateCharacterID == "" {
		return nil, fmt.Errorf("either --character or --file is required")
	}
	rec, err := store.Get(generateCharacterID)
	if err != nil {
		return nil, fmt.Errorf("character %q not found in store (import it with 'tokenbrush characters import')", generateCharacterID)
	}
	return rec, nil
}

// buildPipeline wires the generation stages from config
func buildPipeline(cfg *config.Config, store *character.Store) (*pipeline.Pipeline, error) {
	var refiner refine.Refiner
	if cfg.AI.APIKey != "" && !generateNoRefine {
		r, err := refine.New(cfg)
		if err != nil {
			return nil, err
		}
		refiner = r
	}

	var images *imagegen.Requester
	if cfg.AI.APIKey != "" {
		var err error
		images, err = imagegen.NewRequester(imagegen.RequesterConfig{
			APIKey:            cfg.AI.APIKey,
			BaseURL:           cfg.AI.BaseURL,
			Model:             cfg.AI.ImageModel,
			PromptMaxChars:    cfg.AI.PromptMaxChars,
			RequestsPerMinute: cfg.AI.RequestsPerMinute,
		})
		if err != nil {
			return nil, err
		}
	}

	resolver := &relayclient.Resolver{RelayBaseURL: cfg.Relay.BaseURL}
	uploader := &publish.LocalUploader{Root: cfg.Storage.Dir}
	publisher := publish.New(uploader, store, cfg.Storage.Overwrite)

	var reviewer pipeline.Reviewer
	if autoApprove {
		reviewer = pipeline.AutoApprove{}
	} else {
		reviewer = &terminalReviewer{}
	}

	return pipeline.New(cfg, refiner, images, resolver, publisher, reviewer, pipeline.LogNotifier{}), nil
}

func parseEncoding(s string) (imagegen.Encoding, error) {
	switch s {
	case "url":
		return imagegen.EncodingURL, nil
	case "b64_json", "b64", "":
		return imagegen.EncodingB64, nil
	}
	return "", fmt.Errorf("unknown encoding %q (want url or b64_json)", s)
}
