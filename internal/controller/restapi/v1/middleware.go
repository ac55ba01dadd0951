package v1

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	HeaderUser = "X-User"

	_localUser = "user"
)

// requireUser takes the caller's identity from the gateway-set header.
func requireUser(ctx *fiber.Ctx) error {
	user := strings.TrimSpace(ctx.Get(HeaderUser))
	if user == "" {
		return errorResponse(ctx, http.StatusUnauthorized, "missing "+HeaderUser+" header")
	}

	ctx.Locals(_localUser, user)

	return ctx.Next()
}

func currentUser(ctx *fiber.Ctx) string {
	user, _ := ctx.Locals(_localUser).(string)

	return user
}
