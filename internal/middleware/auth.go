package middleware

import (
	"strings"

	"grocery/internal/apperrors"
	"grocery/internal/models"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// TokenValidator resolves a bearer token to the identity it was issued for.
type TokenValidator interface {
	ValidateToken(token string) (models.Principal, error)
}

// bearerToken returns the token from the Authorization header, "" when the
// header is absent, or an error when it is malformed.
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.Unauthorized("authorization header format must be 'Bearer <token>'")
	}
	return strings.TrimSpace(parts[1]), nil
}

func authenticate(c *fiber.Ctx, validator TokenValidator, required bool) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	if token == "" {
		if required {
			return apperrors.Unauthorized("authorization header is required")
		}
		c.Locals(principalKey, models.Principal{})
		return c.Next()
	}

	principal, err := validator.ValidateToken(token)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired token")
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authenticate(c, validator, true)
	}
}

// AuthOptional lets guests through. A token that is present must be valid.
func AuthOptional(validator TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authenticate(c, validator, false)
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !Principal(c).IsAdmin() {
			return apperrors.Forbidden("administrator access required")
		}
		return c.Next()
	}
}

// Principal returns the identity stored by the auth middlewares, or a guest.
func Principal(c *fiber.Ctx) models.Principal {
	if p, ok := c.Locals(principalKey).(models.Principal); ok {
		return p
	}
	return models.Principal{}
}

// Guards bundles the route guards handlers attach per route.
type Guards struct {
	Required fiber.Handler
	Optional fiber.Handler
	Admin    fiber.Handler
}

func NewGuards(validator TokenValidator) Guards {
	return Guards{
		Required: AuthRequired(validator),
		Optional: AuthOptional(validator),
		Admin:    AdminOnly(),
	}
}
