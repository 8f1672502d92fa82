package httpapi

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/ndvi-service/internal/ndvi"
)

var validate = validator.New()

// QueryRunner is the pipeline behind POST /query.
type QueryRunner interface {
	Query(ctx context.Context, q ndvi.Query) (ndvi.Result, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, runner QueryRunner) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Post("/query", func(c *fiber.Ctx) error {
		var req queryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}

		q, err := req.toQuery()
		if err != nil {
			return statusError(err)
		}

		res, err := runner.Query(c.UserContext(), q)
		if err != nil {
			return statusError(err)
		}
		return c.JSON(res)
	})
}

// statusError maps pipeline error kinds onto HTTP status codes.
func statusError(err error) error {
	switch ndvi.KindOf(err) {
	case ndvi.KindInvalid:
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case ndvi.KindNotFound:
		return fiber.NewError(fiber.StatusNotFound, ndvi.ErrNotFound.Error())
	default:
		log.Printf("ERROR: Error processing request: %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
