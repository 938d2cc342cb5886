package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	cache "github.com/shydevcorp/codejeet/internal/cache/redis"
	"github.com/shydevcorp/codejeet/internal/metrics"
	"github.com/shydevcorp/codejeet/internal/questions"
	"github.com/shydevcorp/codejeet/pkg/logger"
	"github.com/shydevcorp/codejeet/pkg/utils"
)

const (
	listingCacheTTL     = time.Hour
	listingCacheControl = "public, max-age=3600, stale-while-revalidate=60"
)

// QuestionsHandler serves the read-only question/company/topic listings.
// Every endpoint here is fail-soft: storage trouble yields empty payloads,
// never a 500, so the dashboard always renders.
type QuestionsHandler struct {
	aggregator *questions.Aggregator
	cache      *cache.Client
}

func NewQuestionsHandler(aggregator *questions.Aggregator, cacheClient *cache.Client) *QuestionsHandler {
	return &QuestionsHandler{
		aggregator: aggregator,
		cache:      cacheClient,
	}
}

func (h *QuestionsHandler) ListQuestions(c *fiber.Ctx) error {
	filters := parseFilters(c)
	c.Set("Cache-Control", listingCacheControl)

	cacheKey := filterHash(c)
	if h.cache != nil {
		var cached questions.Result
		hit, err := h.cache.GetQuestions(c.Context(), cacheKey, &cached)
		if err != nil {
			logger.Warn("Questions cache read failed", zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("questions").Inc()
			return c.JSON(cached)
		}
		metrics.CacheMisses.WithLabelValues("questions").Inc()
	}

	result := h.aggregator.List(c.Context(), filters)
	metrics.QuestionsReturned.Observe(float64(len(result.Questions)))

	if h.cache != nil {
		if err := h.cache.SetQuestions(c.Context(), cacheKey, result, listingCacheTTL); err != nil {
			logger.Warn("Questions cache write failed", zap.Error(err))
		}
	}

	return c.JSON(result)
}

func (h *QuestionsHandler) ListCompanies(c *fiber.Ctx) error {
	c.Set("Cache-Control", listingCacheControl)

	if h.cache != nil {
		if names, hit, err := h.cache.GetNameList(c.Context(), "companies"); err == nil && hit {
			metrics.CacheHits.WithLabelValues("companies").Inc()
			return c.JSON(fiber.Map{"companies": names})
		}
		metrics.CacheMisses.WithLabelValues("companies").Inc()
	}

	names := h.aggregator.Companies(c.Context())

	if h.cache != nil {
		if err := h.cache.SetNameList(c.Context(), "companies", names, listingCacheTTL); err != nil {
			logger.Warn("Companies cache write failed", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{"companies": names})
}

func (h *QuestionsHandler) ListTopics(c *fiber.Ctx) error {
	c.Set("Cache-Control", listingCacheControl)

	if h.cache != nil {
		if names, hit, err := h.cache.GetNameList(c.Context(), "topics"); err == nil && hit {
			metrics.CacheHits.WithLabelValues("topics").Inc()
			return c.JSON(fiber.Map{"topics": names})
		}
		metrics.CacheMisses.WithLabelValues("topics").Inc()
	}

	names := h.aggregator.Topics(c.Context())

	if h.cache != nil {
		if err := h.cache.SetNameList(c.Context(), "topics", names, listingCacheTTL); err != nil {
			logger.Warn("Topics cache write failed", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{"topics": names})
}

func parseFilters(c *fiber.Ctx) questions.Filters {
	filters := questions.Filters{
		Companies:    splitCSV(c.Query("companies")),
		Difficulties: splitCSV(c.Query("difficulties")),
		Topics:       splitCSV(c.Query("topics")),
		Timeframes:   splitCSV(c.Query("timeframes")),
		Search:       c.Query("search"),
	}

	if raw := c.Query("isPremium"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filters.IsPremium = &v
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			filters.Limit = v
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			filters.Offset = v
		}
	}

	return filters
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// filterHash canonicalizes the filter-relevant query params into a cache key.
func filterHash(c *fiber.Ctx) string {
	parts := []string{
		c.Query("companies"),
		c.Query("difficulties"),
		c.Query("topics"),
		c.Query("timeframes"),
		c.Query("isPremium"),
		c.Query("search"),
		c.Query("limit"),
		c.Query("offset"),
	}
	return utils.HashString(strings.Join(parts, "|"))
}
