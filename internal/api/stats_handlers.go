package api

import (
	"github.com/dnhan1707/livebet/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// GetEventStats returns the latest stats snapshot for an event.
func (h *Handler) GetEventStats(c *fiber.Ctx) error {
	eventID, err := c.ParamsInt("id")
	if err != nil || eventID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid event id"})
	}

	stats, err := h.live.StatsByEvent(c.Context(), int64(eventID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch live stream stats"})
	}
	if stats == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Stats not found for this event"})
	}
	return c.JSON(stats)
}

// UpdateEventStats replaces the whole metric map for an event and pushes
// the new snapshot to every subscriber.
func (h *Handler) UpdateEventStats(c *fiber.Ctx) error {
	eventID, err := c.ParamsInt("id")
	if err != nil || eventID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid event id"})
	}

	var stats storage.StatsMap
	if err := c.BodyParser(&stats); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid stats payload"})
	}
	if len(stats) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Empty stats payload"})
	}

	snapshot, err := h.live.ApplyStats(c.Context(), int64(eventID), stats)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update live stream stats"})
	}
	return c.JSON(snapshot)
}
