package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/internal/metrics"
	"github.com/shydevcorp/codejeet/internal/middleware/auth"
	"github.com/shydevcorp/codejeet/internal/progress"
	"github.com/shydevcorp/codejeet/pkg/logger"
)

// ProgressHandler serves per-user solved-question state. All routes sit
// behind the auth middleware; the read path is fail-soft, the write paths
// fail-loud per the synchronizer contract.
type ProgressHandler struct {
	synchronizer *progress.Synchronizer
}

func NewProgressHandler(synchronizer *progress.Synchronizer) *ProgressHandler {
	return &ProgressHandler{synchronizer: synchronizer}
}

func (h *ProgressHandler) GetProgress(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	c.Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	return c.JSON(fiber.Map{
		"progress": h.synchronizer.Get(c.Context(), userID),
	})
}

func (h *ProgressHandler) UpdateProgress(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	var req struct {
		QuestionSlug string `json:"questionSlug"`
		Completed    *bool  `json:"completed"`
	}
	if err := c.BodyParser(&req); err != nil || req.QuestionSlug == "" || req.Completed == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body. Expected questionSlug and completed fields.",
		})
	}

	if err := h.synchronizer.Set(c.Context(), userID, req.QuestionSlug, *req.Completed); err != nil {
		logger.Error("Failed to update progress", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user progress",
		})
	}

	metrics.ProgressUpdates.Inc()
	return c.JSON(fiber.Map{"success": true})
}

func (h *ProgressHandler) SyncProgress(c *fiber.Ctx) error {
	userID := auth.UserID(c)

	// An empty or malformed body is treated as an empty local map, which
	// makes the sync a plain fetch of the server copy.
	var req struct {
		LocalProgress map[string]bool `json:"localProgress"`
	}
	if err := c.BodyParser(&req); err != nil || req.LocalProgress == nil {
		req.LocalProgress = map[string]bool{}
	}

	merged, err := h.synchronizer.Sync(c.Context(), userID, req.LocalProgress)
	if err != nil {
		metrics.ProgressSyncs.WithLabelValues("error").Inc()
		logger.Error("Failed to sync progress", zap.String("user_id", userID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sync user progress",
		})
	}

	metrics.ProgressSyncs.WithLabelValues("ok").Inc()
	return c.JSON(fiber.Map{"progress": merged})
}
