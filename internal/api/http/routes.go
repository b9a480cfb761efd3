package httpapi

import (
	"bytes"
	"errors"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/water-quality-monitor/internal/dashboard"
	"github.com/i474232898/water-quality-monitor/internal/render"
	"github.com/i474232898/water-quality-monitor/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *dashboard.Service, tz *time.Location) {
	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(service.Status())
	})

	v1.Get("/overview", func(c *fiber.Ctx) error {
		return c.JSON(service.Overview())
	})

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(service.Dashboard())
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		summaries, err := service.Locations()
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(fiber.Map{
			"locations": summaries,
		})
	})

	v1.Get("/locations/:name", func(c *fiber.Ctx) error {
		name, err := locationParam(c)
		if err != nil {
			return err
		}
		view, err := service.Location(name)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(view)
	})

	v1.Get("/locations/:name/chart.png", func(c *fiber.Ctx) error {
		name, err := locationParam(c)
		if err != nil {
			return err
		}
		view, err := service.Location(name)
		if err != nil {
			return toFiberError(err)
		}

		var buf bytes.Buffer
		if err := render.PHTrend(&buf, view, tz); err != nil {
			return toFiberError(err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Send(buf.Bytes())
	})

	v1.Get("/selection", func(c *fiber.Ctx) error {
		return c.JSON(service.Selection())
	})

	v1.Put("/selection", func(c *fiber.Ctx) error {
		var req selectionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid selection body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		sel, err := service.Select(req.Location)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(sel)
	})
}

// selectionRequest is the body of PUT /selection.
type selectionRequest struct {
	Location string `json:"location" validate:"required"`
}

func locationParam(c *fiber.Ctx) (string, error) {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil || name == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid location name")
	}
	return name, nil
}

func toFiberError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusServiceUnavailable, "water quality data is still loading")
	case errors.Is(err, dashboard.ErrUnknownLocation):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, render.ErrNoData):
		return fiber.NewError(fiber.StatusNotFound, "no readings to chart")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build view: "+err.Error())
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
