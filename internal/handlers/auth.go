package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/middleware"
	"github.com/n1str/RationX/internal/models"
	"github.com/n1str/RationX/internal/services"
	"github.com/n1str/RationX/internal/utils"
)

// AuthService registers users and manages their tokens
type AuthService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	ValidateToken(ctx context.Context, token string) (*services.Claims, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	CurrentUser(ctx context.Context, userID int64) (*models.User, error)
}

type AuthHandler struct {
	auth         AuthService
	secureCookie bool
}

// NewAuthHandler creates an auth handler. secureCookie marks the token
// cookie Secure, which production deployments behind TLS want.
func NewAuthHandler(auth AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookie: secureCookie}
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ValidateRequest struct {
	Token string `json:"token"`
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}

	user, err := h.auth.Register(c.Context(), req.Username, req.Password)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.CreatedResponse(c, user)
}

// Login handles POST /v1/auth/login. The token is returned in the body and
// as an HttpOnly cookie.
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}

	result, err := h.auth.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return utils.FromError(err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookieKey,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return utils.SuccessResponse(c, result)
}

// Validate handles POST /v1/auth/validate. The token comes from the body,
// falling back to the Authorization header or cookie.
func (h *AuthHandler) Validate(c fiber.Ctx) error {
	var req ValidateRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return utils.NewBadRequestError("Invalid request body", nil)
		}
	}
	token := req.Token
	if token == "" {
		token = middleware.ExtractToken(c)
	}

	claims, err := h.auth.ValidateToken(c.Context(), token)
	if err != nil {
		return utils.FromError(err)
	}

	return utils.SuccessResponse(c, fiber.Map{
		"valid":      true,
		"user_id":    claims.UserID,
		"username":   claims.Username,
		"expires_at": claims.ExpiresAt.Time,
	})
}

// Logout handles POST /v1/auth/logout. It must run behind middleware.Auth.
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	jti, exp := middleware.TokenID(c)
	if jti == "" {
		return utils.NewUnauthorizedError("unauthorized - user not authenticated")
	}

	if err := h.auth.Logout(c.Context(), jti, exp); err != nil {
		return utils.FromError(err)
	}

	c.ClearCookie(middleware.TokenCookieKey)
	return utils.SuccessResponse(c, fiber.Map{"logged_out": true})
}

// Me handles GET /v1/me
func (h *AuthHandler) Me(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	user, err := h.auth.CurrentUser(c.Context(), userID)
	if err != nil {
		return utils.FromError(err)
	}
	return utils.SuccessResponse(c, user)
}
