package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-tailor/internal/config"
	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/embeddings"
	"github.com/jonathan/resume-tailor/internal/types"
)

// services are the long-lived dependencies shared by serve and worker
type services struct {
	db         *db.DB
	selection  *types.SelectionConfig
	configHash string
	embedder   embeddings.Embedder
}

func openServices(ctx context.Context, cfg config.Config, log *zap.Logger) (*services, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set (set DATABASE_URL environment variable or use --db-url flag)")
	}

	svc := &services{}
	if cfg.SelectionConfig != "" {
		sel, hash, err := config.LoadSelection(cfg.SelectionConfig)
		if err != nil {
			return nil, err
		}
		svc.selection, svc.configHash = sel, hash
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	svc.db = database

	// Without a key, runs with no stored embeddings use lexical similarity
	if cfg.APIKey != "" {
		client, err := embeddings.NewClient(ctx, embeddings.DefaultConfig().WithModel(cfg.EmbeddingModel), cfg.APIKey)
		if err != nil {
			log.Warn("embeddings disabled", zap.Error(err))
		} else {
			svc.embedder = client
		}
	}
	return svc, nil
}

func (s *services) Close() {
	if s.embedder != nil {
		_ = s.embedder.Close()
	}
	s.db.Close()
}
