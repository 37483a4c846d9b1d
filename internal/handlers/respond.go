package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"time"

	"keranjang/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// newValidator reports field errors under their JSON names. It adds the
// bytemax tag, which bounds a string by its encoded length rather than by
// runes.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("bytemax", byteMax); err != nil {
		panic(err)
	}
	return v
}

func byteMax(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// parseAndValidate binds the JSON body into req and runs its validate tags.
// On failure the 400 response has already been written and ok is false.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, respondError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	return validateRequest(c, v, req)
}

// validateRequest runs the validate tags of an already bound req.
func validateRequest(c *fiber.Ctx, v *validator.Validate, req interface{}) (ok bool, err error) {
	if err := v.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, err
		}
		errorMessages := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"errors": errorMessages,
		})
	}
	return true, nil
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// serverError logs err and answers with a generic 500.
func serverError(c *fiber.Ctx, log *slog.Logger, msg string, err error) error {
	log.Error(msg,
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("request_id", requestID(c)),
		logger.Err(err))
	return respondError(c, fiber.StatusInternalServerError, "Server error")
}

// requestContext bounds store calls made on behalf of c.
func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), timeout)
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// ErrorHandler turns errors escaping the handlers into JSON responses. fiber
// errors keep their status; anything else is logged and reported as a 500.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return respondError(c, fiberErr.Code, fiberErr.Message)
		}
		return serverError(c, log, "unhandled error", err)
	}
}
