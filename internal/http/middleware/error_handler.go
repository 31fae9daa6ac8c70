package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/symph-co/shorturl/internal/app/apperror"
)

// ErrorHandler renders handler errors. Structured errors keep their code,
// fiber errors (unknown route, bad method) become Client errors and anything
// else is a generic 500.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr, ok := apperror.As(err); ok {
			return c.Status(appErr.Status()).JSON(appErr)
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			t := apperror.Client
			if fe.Code >= fiber.StatusInternalServerError {
				t = apperror.Service
			}
			return c.Status(fe.Code).JSON(apperror.New(fe.Code, t, fe.Message))
		}

		return c.Status(fiber.StatusInternalServerError).JSON(apperror.InternalBody())
	}
}
