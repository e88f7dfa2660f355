package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/n1str/RationX/internal/logger"
	"github.com/n1str/RationX/internal/services"
)

type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewBadRequestError(message string, details any) *APIError {
	return &APIError{
		StatusCode: fiber.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		Details:    details,
	}
}

func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
	}
}

func NewForbiddenError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
	}
}

func NewConflictError(message string) *APIError {
	return &APIError{
		StatusCode: fiber.StatusConflict,
		Code:       "CONFLICT",
		Message:    message,
	}
}

func NewInternalError(err error) *APIError {
	return &APIError{
		StatusCode: fiber.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    "An internal error occurred",
	}
}

// FromError maps a service error kind onto an HTTP error
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		return NewBadRequestError(validation.Message, fiber.Map{"field": validation.Field})
	case errors.Is(err, services.ErrValidation):
		return NewBadRequestError(err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		return &APIError{StatusCode: fiber.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, services.ErrPermissionDenied):
		return NewForbiddenError(err.Error())
	case errors.Is(err, services.ErrIllegalState):
		return &APIError{StatusCode: fiber.StatusConflict, Code: "ILLEGAL_STATE", Message: err.Error()}
	case errors.Is(err, services.ErrConflict):
		return NewConflictError(err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return NewUnauthorizedError(err.Error())
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &APIError{StatusCode: fiberErr.Code, Code: "HTTP_ERROR", Message: fiberErr.Message}
	}

	return NewInternalError(err)
}

// ErrorHandler renders any error returned by a handler as an APIError
func ErrorHandler(c fiber.Ctx, err error) error {
	apiErr := FromError(err)
	if apiErr.StatusCode >= fiber.StatusInternalServerError {
		log := logger.FromContext(c.Context())
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}

	return c.Status(apiErr.StatusCode).JSON(apiErr)
}
