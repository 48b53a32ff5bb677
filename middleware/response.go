package middleware

import (
	"errors"
	"log"

	"github.com/roxas19/DRP/apperror"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errs map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errs)
}

// ErrorResponse maps a service error onto the response envelope.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var status int
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		status = fiber.StatusNotFound
	case apperror.KindForbidden:
		status = fiber.StatusForbidden
	case apperror.KindValidation:
		status = fiber.StatusBadRequest
	case apperror.KindConflict:
		status = fiber.StatusConflict
	default:
		log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
		return JsonResponse(c, fiber.StatusInternalServerError, false, "Internal server error", nil)
	}
	msg := err.Error()
	var e *apperror.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	return JsonResponse(c, status, false, msg, nil)
}
