package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/n1str/RationX/internal/database/db"
	"github.com/n1str/RationX/internal/metrics"
	"github.com/n1str/RationX/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "rationx"

// Claims are the access token claims. RegisteredClaims.ID carries the jti.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// LoginResult is a signed token and the user it was issued to
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthService registers users and issues, validates and revokes tokens
type AuthService struct {
	store       db.Querier
	revocations RevocationStore
	validator   *RequestValidator
	metrics     *metrics.Metrics
	log         zerolog.Logger

	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(store db.Querier, revocations RevocationStore, validator *RequestValidator, m *metrics.Metrics, log zerolog.Logger, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		store:       store,
		revocations: revocations,
		validator:   validator,
		metrics:     m,
		log:         log.With().Str("service", "auth").Logger(),
		secret:      []byte(secret),
		ttl:         ttl,
		now:         time.Now,
	}
}

// Register creates an enabled USER account. A taken username is a conflict.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := s.validator.ValidateCredentials(username, password); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: username %q is already taken", ErrConflict, username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Enabled:      true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username %q is already taken", ErrConflict, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", username).Msg("user registered")
	return user, nil
}

// Login checks the password and issues a signed token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.metrics.RecordLogin(false)
		s.log.Warn().Str("username", username).Msg("login failed")
		return nil, fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	}
	if !user.Enabled {
		s.metrics.RecordLogin(false)
		return nil, fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	}

	token, expiresAt, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(true)
	s.log.Info().Int64("user_id", user.ID).Msg("user logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) issue(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies signature, expiry and revocation
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token has expired", ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	if !parsed.Valid || claims.UserID <= 0 || claims.ID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", ErrUnauthorized)
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token has been revoked", ErrUnauthorized)
	}

	return claims, nil
}

// Logout revokes the token's jti until the token would have expired
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if err := s.revocations.Revoke(ctx, jti, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.log.Info().Str("jti", jti).Msg("token revoked")
	return nil
}

// CurrentUser loads the account behind a validated token
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, notFound("user %d not found", userID)
	}
	return user, nil
}
