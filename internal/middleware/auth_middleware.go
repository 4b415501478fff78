package middleware

import (
	"strings"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ActorKey is the fiber Locals key holding the request's permission.Actor.
const ActorKey = "actor"

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperror.Unauthenticated("Missing authorization token")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", apperror.Unauthenticated("Invalid authorization format. Use: Bearer <token>")
	}
	return parts[1], nil
}

// RequireAuth resolves the bearer token into the request's actor.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return Fail(c, err)
		}

		return authenticate(c, auth, token)
	}
}

// RequireSocketAuth authenticates a websocket upgrade. Browsers cannot set
// headers on the handshake, so the token may come as ?token= instead.
func RequireSocketAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			var err error
			if token, err = BearerToken(c); err != nil {
				return Fail(c, err)
			}
		}
		return authenticate(c, auth, token)
	}
}

func authenticate(c *fiber.Ctx, auth service.AuthService, token string) error {
	actor, err := auth.Authenticate(c.UserContext(), token)
	if err != nil {
		return Fail(c, err)
	}

	c.Locals(ActorKey, actor)
	return c.Next()
}

// Actor returns the actor RequireAuth stored for this request.
func Actor(c *fiber.Ctx) (permission.Actor, bool) {
	actor, ok := c.Locals(ActorKey).(permission.Actor)
	return actor, ok
}

// RequirePermission runs the permission gate before the handler.
func RequirePermission(action permission.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := Actor(c)
		if !ok {
			return Fail(c, apperror.Unauthenticated("Missing authorization token"))
		}
		if err := permission.Require(actor, action); err != nil {
			return Fail(c, err)
		}
		return c.Next()
	}
}
