package handlers

import (
	"errors"
	"fmt"
	"strings"

	"grocery/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string         `json:"message"`
	Kind    apperrors.Kind `json:"kind"`
}

// ErrorHandler renders errors returned by handlers and middlewares.
// Internal errors are logged and replaced with a generic message.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Message: fiberErr.Message,
				Kind:    kindForStatus(fiberErr.Code),
			})
		}

		kind := apperrors.KindOf(err)
		message := err.Error()
		switch kind {
		case apperrors.KindInternal:
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
			message = "internal server error"
		case apperrors.KindGateway:
			// the cause may carry the provider's raw response
			logger.Warn("payment gateway request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
			message = apperrors.MessageOf(err)
		}
		return c.Status(apperrors.HTTPStatus(kind)).JSON(ErrorResponse{Message: message, Kind: kind})
	}
}

func kindForStatus(status int) apperrors.Kind {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return apperrors.KindValidation
	case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
		return apperrors.KindNotFound
	case fiber.StatusUnauthorized:
		return apperrors.KindUnauthorized
	case fiber.StatusForbidden:
		return apperrors.KindForbidden
	case fiber.StatusConflict:
		return apperrors.KindConflict
	default:
		return apperrors.KindInternal
	}
}

// parseBody decodes the request body into out and validates it.
func parseBody(c *fiber.Ctx, validate *validator.Validate, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.Validation("invalid request body: %v", err)
	}
	return validateStruct(validate, out)
}

func validateStruct(validate *validator.Validate, s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.Validation("invalid request: %v", err)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("field '%s' failed on the '%s' tag", e.Namespace(), e.Tag()))
	}
	return apperrors.Validation("validation failed: %s", strings.Join(messages, "; "))
}
