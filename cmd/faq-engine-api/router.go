// Package main provides the API router setup.
package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/campusbot/faq-engine/cmd/faq-engine-api/handlers"
	"github.com/campusbot/faq-engine/internal/cache"
	"github.com/campusbot/faq-engine/internal/config"
	"github.com/campusbot/faq-engine/internal/contacts"
	"github.com/campusbot/faq-engine/internal/matching"
	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, db *sql.DB, cacheClient cache.Client) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"faq-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Repositories
	faqRepo := storage.NewFAQRepository(db)
	stopwordRepo := storage.NewStopwordRepository(db)
	synonymRepo := storage.NewSynonymRepository(db)
	negativeRepo := storage.NewNegativeKeywordRepository(db)
	semanticRepo := storage.NewSemanticPairRepository(db)
	contactRepo := storage.NewContactRepository(db)

	// Matching pipeline
	stopwords := matching.NewStopwordCache(stopwordRepo, faqRepo, cfg.Cache.TTL, logger)

	remote := matching.NewRemoteTokenizer(matching.RemoteTokenizerConfig{
		URL:     cfg.Tokenizer.URL,
		Timeout: cfg.Tokenizer.Timeout,
	})
	tokenizer := matching.NewTokenizer(remote, stopwords, logger)

	sessions := matching.NewDualStore(
		matching.NewCacheStore(cacheClient, cfg.Session.BlockTTL),
		matching.NewMemoryStore(cfg.Session.BlockTTL),
	)

	resolver := contacts.NewResolver(contactRepo, cfg.Contacts, logger)

	engine := matching.NewEngine(matching.EngineDeps{
		FAQs:             faqRepo,
		Synonyms:         synonymRepo,
		NegativeKeywords: negativeRepo,
		SemanticPairs:    semanticRepo,
		Tokenizer:        tokenizer,
		Stopwords:        stopwords,
		Sessions:         sessions,
		Contacts:         resolver,
		FilterConfig: matching.FilterConfig{
			MinTopScore:    cfg.Matching.MinTopScore,
			RelativeCutoff: cfg.Matching.RelativeCutoff,
			GenericTerms:   cfg.Matching.GenericTerms,
		},
		MaxResults: cfg.Matching.MaxResults,
		Logger:     logger,
	})
	engine.WarmUp(context.Background())

	chatHandler := handlers.NewChatHandler(logger, engine)
	adminHandler := handlers.NewAdminHandler(logger, engine)

	r.Route("/chat", func(r chi.Router) {
		r.Post("/respond", chatHandler.Respond)
	})

	r.Route("/admin/cache", func(r chi.Router) {
		r.Post("/stopwords/clear", adminHandler.ClearStopwords)
		r.Post("/negative-keywords/clear", adminHandler.ClearNegativeKeywords)
		r.Post("/synonyms/clear", adminHandler.ClearSynonyms)
		r.Post("/semantic-pairs/clear", adminHandler.ClearSemanticPairs)
	})

	return r
}
