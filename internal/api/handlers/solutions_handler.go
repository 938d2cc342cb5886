package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/internal/solutions"
	"github.com/shydevcorp/codejeet/pkg/logger"
)

type SolutionsHandler struct {
	service *solutions.Service
}

func NewSolutionsHandler(service *solutions.Service) *SolutionsHandler {
	return &SolutionsHandler{service: service}
}

func (h *SolutionsHandler) GetSolution(c *fiber.Ctx) error {
	raw := c.Query("id")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question ID is required",
		})
	}

	questionID, err := strconv.Atoi(raw)
	if err != nil || questionID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question ID must be a positive integer",
		})
	}

	solution, err := h.service.Solution(c.Context(), questionID)
	if err != nil {
		logger.Error("Failed to generate solution", zap.Int("question_id", questionID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"solution": solution})
}
