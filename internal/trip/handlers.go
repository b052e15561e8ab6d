package trip

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Trip
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.DriverID == "" || req.VehicleID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "driver_id and vehicle_id required")
		}
		created, err := svc.StartTrip(c.Context(), req)
		if err != nil {
			if errors.Is(err, ErrActiveTripExists) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	})

	r.Post("/:id/end", authMiddleware, func(c *fiber.Ctx) error {
		var req CloseRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		closed, err := svc.EndTrip(c.Context(), c.Params("id"), req)
		if err != nil {
			if errors.Is(err, ErrTripNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(closed)
	})

	r.Get("/active", func(c *fiber.Ctx) error {
		driverID := c.Query("driver_id")
		vehicleID := c.Query("vehicle_id")
		if driverID == "" || vehicleID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "driver_id and vehicle_id required")
		}
		active, err := svc.ActiveTrip(c.Context(), driverID, vehicleID)
		if err != nil {
			if errors.Is(err, ErrTripNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(active)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.GetTrip(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, ErrTripNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(t)
	})

	r.Get("/:id/samples", func(c *fiber.Ctx) error {
		samples, err := svc.Samples(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(samples)
	})
}
