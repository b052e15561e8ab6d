package reaper

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes exposes the manual sweep trigger used by administrators.
func RegisterRoutes(r fiber.Router, rp *Reaper, authMiddleware fiber.Handler) {
	r.Post("/run", authMiddleware, func(c *fiber.Ctx) error {
		hours := c.QueryInt("threshold_hours", 12)
		if hours <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "threshold_hours must be positive")
		}
		closed, err := rp.Reap(c.Context(), time.Duration(hours)*time.Hour)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"closed": closed})
	})
}
