// Package respond holds the JSON error envelope shared by every handler.
package respond

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Error is the error description.
	Error string `json:"error"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RayID returns the request id assigned by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}

// Error writes the error envelope with the given status.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Error: message,
		RayID: RayID(c),
	})
}

// Unauthorized writes the generic 401 envelope. No detail about the cause is leaked.
func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

// Bind parses the JSON body into dst and runs struct validation on it.
// The returned message is suitable for a 400 response.
func Bind(c *fiber.Ctx, dst interface{}) (string, bool) {
	if err := c.BodyParser(dst); err != nil {
		return "Invalid request body", false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return describe(verrs[0]), false
		}
		return "Invalid request body", false
	}
	return "", true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "e164", "numeric":
		return fe.Field() + " must be a valid phone number"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte", "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "lte", "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
