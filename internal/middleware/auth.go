package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
)

// Locals keys set by Auth
const (
	LocalUserID    = "user_id"
	LocalUsername  = "username"
	LocalTokenID   = "jti"
	LocalTokenExp  = "token_exp"
	TokenCookieKey = "token"
)

// TokenValidator checks an access token and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*services.Claims, error)
}

// Auth validates the bearer token or the token cookie and stores the
// caller's identity in Locals
func Auth(validator TokenValidator) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := ExtractToken(c)
		if token == "" {
			return utils.NewUnauthorizedError("Missing authorization token")
		}

		claims, err := validator.ValidateToken(c.Context(), token)
		if err != nil {
			return utils.FromError(err)
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		c.Locals(LocalTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Locals(LocalTokenExp, claims.ExpiresAt.Time)
		}

		return c.Next()
	}
}

// ExtractToken reads "Authorization: Bearer <token>", then the token cookie
func ExtractToken(c fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Cookies(TokenCookieKey)
}

// UserID returns the authenticated user's id
func UserID(c fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(LocalUserID).(int64)
	return id, ok && id > 0
}

// TokenID returns the jti and expiry of the token used for this request
func TokenID(c fiber.Ctx) (string, time.Time) {
	jti, _ := c.Locals(LocalTokenID).(string)
	exp, _ := c.Locals(LocalTokenExp).(time.Time)
	return jti, exp
}
