package solutions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/internal/metrics"
	"github.com/shydevcorp/codejeet/internal/storage/models"
	"github.com/shydevcorp/codejeet/pkg/logger"
)

type Provider interface {
	Generate(ctx context.Context, questionID int) (*Generation, error)
}

// Cache avoids re-paying the provider for a question already answered.
type Cache interface {
	GetSolution(ctx context.Context, questionID int) (string, bool, error)
	SetSolution(ctx context.Context, questionID int, solution string, ttl time.Duration) error
}

// Store persists the per-generation audit row.
type Store interface {
	InsertSolutionRequest(ctx context.Context, req models.SolutionRequest) error
}

// Service serves AI-generated solutions: Redis first, provider on miss.
// Cache and store are optional; a nil one is skipped.
type Service struct {
	provider Provider
	cache    Cache
	store    Store
	cacheTTL time.Duration
}

func NewService(provider Provider, cache Cache, store Store, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Service{
		provider: provider,
		cache:    cache,
		store:    store,
		cacheTTL: cacheTTL,
	}
}

// Solution returns the generated solution text for a question. Provider
// errors propagate; cache and audit-log failures are logged and absorbed.
func (s *Service) Solution(ctx context.Context, questionID int) (string, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetSolution(ctx, questionID)
		if err != nil {
			logger.Warn("Solution cache read failed", zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("solutions").Inc()
			return cached, nil
		}
		metrics.CacheMisses.WithLabelValues("solutions").Inc()
	}

	start := time.Now()
	gen, err := s.provider.Generate(ctx, questionID)
	if err != nil {
		metrics.SolutionRequests.WithLabelValues("error").Inc()
		return "", err
	}
	latency := time.Since(start)

	metrics.SolutionRequests.WithLabelValues("ok").Inc()
	metrics.SolutionTokensUsed.WithLabelValues("prompt").Add(float64(gen.PromptTokens))
	metrics.SolutionTokensUsed.WithLabelValues("completion").Add(float64(gen.CompletionTokens))

	if s.cache != nil {
		if err := s.cache.SetSolution(ctx, questionID, gen.Content, s.cacheTTL); err != nil {
			logger.Warn("Solution cache write failed", zap.Error(err))
		}
	}

	if s.store != nil {
		req := models.SolutionRequest{
			ID:               uuid.NewString(),
			QuestionID:       questionID,
			Model:            gen.Model,
			LatencyMS:        latency.Milliseconds(),
			PromptTokens:     gen.PromptTokens,
			CompletionTokens: gen.CompletionTokens,
			CreatedAt:        time.Now(),
		}
		if err := s.store.InsertSolutionRequest(ctx, req); err != nil {
			logger.Warn("Failed to log solution request", zap.Error(err))
		}
	}

	return gen.Content, nil
}
