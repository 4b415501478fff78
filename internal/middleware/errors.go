package middleware

import (
	"errors"

	"go-warehouse-ws/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// StatusOf maps an error kind onto an HTTP status.
func StatusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindAuthorization:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindUnauthenticated:
		return fiber.StatusUnauthorized
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Code == "STORAGE_TIMEOUT" {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// Fail writes err as {"error", "code"}. Storage failures never expose
// their cause.
func Fail(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error", "code": "INTERNAL"})
	}
	message := appErr.Message
	if appErr.Kind == apperror.KindStorage {
		message = "Internal Server Error"
	}
	return c.Status(status).JSON(fiber.Map{"error": message, "code": appErr.Code})
}

// ErrorHandler is the fiber fallback for errors no handler turned into a
// response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": "HTTP_ERROR"})
	}
	return Fail(c, err)
}
