package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/horizonmask/internal/core/domain"
)

const (
	minMaskSize     = 64
	maxMaskSize     = 2048
	defaultMaskSize = 400
)

// PointsResponse carries a boundary point list.
type PointsResponse struct {
	Points []domain.BoundaryPoint `json:"points"`
}

// SettingsHandler returns the settings payload holding the horizon limit.
func SettingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		settings, err := deps.Horizon.Settings(c.UserContext())
		if err != nil {
			return fail(c, "load settings", err)
		}
		return c.JSON(settings)
	}
}

// GetHorizonLimitHandler returns the stored horizon limit.
func GetHorizonLimitHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		points, err := deps.Horizon.Points(c.UserContext())
		if err != nil {
			return fail(c, "load horizon limit", err)
		}
		return c.JSON(PointsResponse{Points: points})
	}
}

// SaveHorizonLimitHandler replaces the horizon limit. The whole set is
// rejected if any point is out of range.
func SaveHorizonLimitHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PointsResponse
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Points == nil {
			return errBadRequest(c, "points is required")
		}

		stored, err := deps.Horizon.Save(c.UserContext(), body.Points)
		if err != nil {
			return fail(c, "save horizon limit", err)
		}
		return c.JSON(PointsResponse{Points: stored})
	}
}

// CheckHorizonLimitHandler tests a target against the limit.
func CheckHorizonLimitHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		alt, err := strconv.ParseFloat(c.Query("alt"), 64)
		if err != nil {
			return errBadRequest(c, "alt must be a number")
		}
		az, err := strconv.ParseFloat(c.Query("az"), 64)
		if err != nil {
			return errBadRequest(c, "az must be a number")
		}

		check, err := deps.Horizon.Check(c.UserContext(), alt, az)
		if err != nil {
			return fail(c, "check horizon limit", err)
		}
		return c.JSON(check)
	}
}

// HorizonCurveHandler returns the limit sampled every degree.
func HorizonCurveHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		curve, err := deps.Horizon.Curve(c.UserContext())
		if err != nil {
			return fail(c, "sample horizon curve", err)
		}
		return c.JSON(PointsResponse{Points: curve})
	}
}

// MaskImageHandler renders the stored limit as a PNG.
func MaskImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Renderer == nil {
			return errUnavailable(c, "renderer not configured")
		}
		size := c.QueryInt("size", defaultMaskSize)
		if size < minMaskSize || size > maxMaskSize {
			return errBadRequest(c, "size must be between 64 and 2048")
		}

		points, err := deps.Horizon.Points(c.UserContext())
		if err != nil {
			return fail(c, "load horizon limit", err)
		}
		png, err := deps.Renderer.RenderPoints(points, size)
		if err != nil {
			return fail(c, "render mask", err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(png)
	}
}

// ModelPointsHandler returns the active pointing model's sample points.
func ModelPointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		points, err := deps.Models.Points(c.UserContext())
		if err != nil {
			return fail(c, "load pointing model", err)
		}
		return c.JSON(PointsResponse{Points: points})
	}
}

// MountStatusHandler returns the live mount position.
func MountStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			pos domain.MountPosition
			err error
		)
		if deps.Hub != nil {
			pos, err = deps.Hub.Position(c.UserContext())
		} else {
			pos, err = deps.Status.Position(c.UserContext())
		}
		if err != nil {
			return fail(c, "read mount status", err)
		}
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(pos)
	}
}
