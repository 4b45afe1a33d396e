package api

import (
	"errors"

	"github.com/dnhan1707/livebet/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// GetEventStream returns the active stream for an event.
func (h *Handler) GetEventStream(c *fiber.Ctx) error {
	eventID, err := c.ParamsInt("id")
	if err != nil || eventID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid event id"})
	}

	stream, err := h.live.StreamByEvent(c.Context(), int64(eventID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch live stream"})
	}
	if stream == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "No active stream found for this event"})
	}
	return c.JSON(stream)
}

// ListStreams returns every stream descriptor, newest first.
func (h *Handler) ListStreams(c *fiber.Ctx) error {
	streams, err := h.live.Streams(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to fetch live streams"})
	}
	if streams == nil {
		streams = []storage.LiveStream{}
	}
	return c.JSON(streams)
}

// CreateStream starts a new broadcast for an event. Subscribers of the
// event receive the new descriptor immediately.
func (h *Handler) CreateStream(c *fiber.Ctx) error {
	var payload storage.StreamPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid stream payload"})
	}
	payload.ID = 0 // creation only on this route

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	stream, err := h.live.ApplyStreamUpdate(c.Context(), payload)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to create live stream"})
	}
	return c.Status(fiber.StatusCreated).JSON(stream)
}

// UpdateStream merges the provided fields onto an existing descriptor and
// broadcasts the result.
func (h *Handler) UpdateStream(c *fiber.Ctx) error {
	streamID, err := c.ParamsInt("id")
	if err != nil || streamID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid stream id"})
	}

	var payload storage.StreamPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid stream payload"})
	}
	payload.ID = int64(streamID)

	stream, err := h.live.ApplyStreamUpdate(c.Context(), payload)
	if err != nil {
		if errors.Is(err, storage.ErrStreamNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Live stream not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Failed to update live stream"})
	}
	return c.JSON(stream)
}
