package handlers

import (
	"errors"

	"github.com/Eswarhead/handcrafted-marketplace/internal/services"

	"github.com/gofiber/fiber/v2"
)

var statusByKind = map[services.Kind]int{
	services.KindValidation:   fiber.StatusBadRequest,
	services.KindUnauthorized: fiber.StatusUnauthorized,
	services.KindForbidden:    fiber.StatusForbidden,
	services.KindNotFound:     fiber.StatusNotFound,
	services.KindConflict:     fiber.StatusConflict,
	services.KindUpload:       fiber.StatusBadGateway,
	services.KindInternal:     fiber.StatusInternalServerError,
}

// StatusFor returns the HTTP status for a service error.
func StatusFor(err error) int {
	if status, ok := statusByKind[services.KindOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// RespondError writes err as {"message", "category", "fields"}. Causes of internal errors are
// never exposed.
func RespondError(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	body := fiber.Map{"category": string(kind)}

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		body["message"] = svcErr.Message
		if len(svcErr.Fields) > 0 {
			body["fields"] = svcErr.Fields
		}
	} else {
		body["message"] = "internal server error"
	}
	return c.Status(StatusFor(err)).JSON(body)
}

// ErrorHandler is the fiber.Config error handler. Fiber errors (unknown route, body too large)
// keep their status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"message":  fe.Message,
			"category": categoryForStatus(fe.Code),
		})
	}
	return RespondError(c, err)
}

func categoryForStatus(status int) string {
	for kind, s := range statusByKind {
		if s == status {
			return string(kind)
		}
	}
	if status >= 500 {
		return string(services.KindInternal)
	}
	return string(services.KindValidation)
}
