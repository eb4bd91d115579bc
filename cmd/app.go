package cmd

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"leetmentor/cache"
	"leetmentor/config"
	"leetmentor/llm/providers"
	"leetmentor/rag"
	"leetmentor/vector"
)

// app bundles the long-lived components shared by the server and the
// ingester.
type app struct {
	cfg      config.Config
	logger   zerolog.Logger
	redis    *redis.Client
	store    *vector.RedisStore
	pipeline *rag.Pipeline
}

// setup wires config, Redis, models, store, cache and pipeline together.
func setup(ctx context.Context) (*app, error) {
	cfg := config.Load()
	logger := newLogger()

	// RediSearch replies are parsed as RESP2 arrays.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		PoolSize: cfg.RedisPoolSize,
		Protocol: 2,
	})

	models, err := providers.Build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build models: %w", err)
	}

	storeCfg := vector.StoreConfig{
		EmbeddingDim:   cfg.VectorDim,
		IndexName:      cfg.IndexName,
		KeyPrefix:      "doc:",
		TopK:           cfg.TopK,
		EFConstruction: cfg.EFConstruction,
		M:              cfg.M,
	}
	store, err := vector.NewRedisStore(ctx, rdb, models.Embedder, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}

	pipeline, err := rag.New(rag.Config{
		Retriever:    store,
		Cache:        cache.New(rdb, cfg.CacheTTL),
		ChatModel:    models.Chat,
		SummaryModel: models.Summary,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		redis:    rdb,
		store:    store,
		pipeline: pipeline,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("closing vector store")
	}
}
