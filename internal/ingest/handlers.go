package ingest

import (
	"errors"

	"backend-fleetwatch/internal/trip"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, tracker *Tracker, authMiddleware fiber.Handler) {
	r.Post("/trips/:id/samples", authMiddleware, func(c *fiber.Ctx) error {
		var req Position
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		update, err := tracker.HandleSample(c.Context(), c.Params("id"), req)
		if err != nil {
			if errors.Is(err, trip.ErrTripNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(update)
	})
}
