package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// SuccessResponse sends a standardized success response
func SuccessResponse(c fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// CreatedResponse sends a standardized 201 response
func CreatedResponse(c fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// PaginatedResponse sends a paginated response
func PaginatedResponse(c fiber.Ctx, data interface{}, page, pageSize int, total int64) error {
	pages := int64(0)
	if pageSize > 0 {
		pages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
			"pages":     pages,
		},
	})
}

// Pagination reads page (1-based) and page_size query params, falling back to
// defaults on bad input. It returns limit and offset for the store.
func Pagination(c fiber.Ctx) (page, pageSize int, limit, offset int32) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.Query("page_size", strconv.Itoa(DefaultPageSize)))
	if err != nil || pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return page, pageSize, int32(pageSize), int32((page - 1) * pageSize)
}
