package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reloadCmd = &cobra.Command{
	Use:   "reload [stopwords|synonyms|negative-keywords|semantic-pairs|all]",
	Short: "Reload dictionary caches from the database",
	Long: `Rebuilds the in-memory dictionaries the way the HTTP cache-clear hooks
do. Run after editing stopwords, synonyms, negative keywords, or semantic
pairs directly in the database.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		target := args[0]
		ctx := cmd.Context()

		if target == "stopwords" || target == "all" {
			engine.InvalidateStopwords()
			successf("stopword cache invalidated")
		}
		if target == "synonyms" || target == "all" {
			if err := engine.ReloadSynonyms(ctx); err != nil {
				return err
			}
			successf("synonyms reloaded")
		}
		if target == "negative-keywords" || target == "all" {
			if err := engine.ReloadNegativeKeywords(ctx); err != nil {
				return err
			}
			successf("negative keywords reloaded")
		}
		if target == "semantic-pairs" || target == "all" {
			if err := engine.ReloadSemanticPairs(ctx); err != nil {
				return err
			}
			successf("semantic pairs reloaded")
		}

		switch target {
		case "stopwords", "synonyms", "negative-keywords", "semantic-pairs", "all":
			return nil
		default:
			return fmt.Errorf("unknown cache: %s", target)
		}
	},
}
