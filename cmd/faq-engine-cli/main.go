// Package main provides the FAQ engine CLI entrypoint.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/campusbot/faq-engine/internal/cache"
	"github.com/campusbot/faq-engine/internal/config"
	"github.com/campusbot/faq-engine/internal/contacts"
	"github.com/campusbot/faq-engine/internal/matching"
	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "faq-engine-cli",
	Short: "FAQ engine CLI for evaluation, seeding, and cache administration",
	Long: `FAQ engine CLI provides commands for operating the matching engine.

Use this tool to:
- Evaluate queries against the live database without the HTTP server
- Seed a development database with schema and sample entries
- Reload dictionary caches after editing stopwords, synonyms, or negative keywords`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.Observability.LogLevel
		if !verbose {
			level = "warn"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      "console",
			ServiceName: "faq-engine-cli",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(seedCmd)
}

// openEngine connects to the database and builds a warmed-up engine for
// in-process commands. The caller closes the returned database handle.
func openEngine(cmd *cobra.Command) (*matching.Engine, *sql.DB, error) {
	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	faqRepo := storage.NewFAQRepository(db)
	stopwords := matching.NewStopwordCache(storage.NewStopwordRepository(db), faqRepo, cfg.Cache.TTL, logger)
	tokenizer := matching.NewTokenizer(matching.NewRemoteTokenizer(matching.RemoteTokenizerConfig{
		URL:     cfg.Tokenizer.URL,
		Timeout: cfg.Tokenizer.Timeout,
	}), stopwords, logger)

	engine := matching.NewEngine(matching.EngineDeps{
		FAQs:             faqRepo,
		Synonyms:         storage.NewSynonymRepository(db),
		NegativeKeywords: storage.NewNegativeKeywordRepository(db),
		SemanticPairs:    storage.NewSemanticPairRepository(db),
		Tokenizer:        tokenizer,
		Stopwords:        stopwords,
		Sessions:         matching.NewCacheStore(cache.NewMemoryClient(), cfg.Session.BlockTTL),
		Contacts:         contacts.NewResolver(storage.NewContactRepository(db), cfg.Contacts, logger),
		FilterConfig: matching.FilterConfig{
			MinTopScore:    cfg.Matching.MinTopScore,
			RelativeCutoff: cfg.Matching.RelativeCutoff,
			GenericTerms:   cfg.Matching.GenericTerms,
		},
		MaxResults: cfg.Matching.MaxResults,
		Logger:     logger,
	})
	engine.WarmUp(cmd.Context())
	return engine, db, nil
}

func successf(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf("✓ %s\n", fmt.Sprintf(format, args...))
}

func errorf(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

func infof(format string, args ...interface{}) {
	color.New(color.FgCyan).Printf("ℹ %s\n", fmt.Sprintf(format, args...))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
