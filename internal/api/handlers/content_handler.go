package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shydevcorp/codejeet/internal/content"
	"github.com/shydevcorp/codejeet/pkg/logger"
)

type ContentHandler struct {
	reader *content.Reader
}

func NewContentHandler(reader *content.Reader) *ContentHandler {
	return &ContentHandler{reader: reader}
}

func (h *ContentHandler) ListChapters(c *fiber.Ctx) error {
	chapters, err := h.reader.Chapters()
	if err != nil {
		logger.Error("Failed to list chapters", zap.Error(err))
		chapters = []content.Chapter{}
	}

	c.Set("Cache-Control", "public, max-age=3600, stale-while-revalidate=60")
	return c.JSON(fiber.Map{"chapters": chapters})
}

func (h *ContentHandler) GetChapter(c *fiber.Ctx) error {
	slug := c.Params("slug")

	page, err := h.reader.Page(slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Chapter not found",
			})
		}
		logger.Error("Failed to read chapter", zap.String("slug", slug), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load chapter",
		})
	}

	c.Set("Cache-Control", "public, max-age=3600, stale-while-revalidate=60")
	return c.JSON(page)
}
