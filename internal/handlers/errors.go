package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

// opError is an unexpected failure while carrying out action; it renders as
// "Failed to <action>: <cause>".
type opError struct {
	action string
	err    error
}

func (e *opError) Error() string {
	return fmt.Sprintf("Failed to %s: %v", e.action, e.err)
}

func (e *opError) Unwrap() error { return e.err }

func failedTo(action string, err error) error {
	return &opError{action: action, err: err}
}

// ErrorHandler renders every error returned by a handler as
// {"success": false, "detail": "..."}. *fiber.Error keeps its status code; anything else
// is a 500. In production a 500 never includes the underlying cause.
func ErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		var op *opError
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		case errors.As(err, &op):
			message = op.Error()
			if production {
				message = "Failed to " + op.action
			}
		default:
			if !production {
				message = err.Error()
			}
		}

		if code >= fiber.StatusInternalServerError {
			log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"detail":  message,
		})
	}
}
