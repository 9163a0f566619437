package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/siempreabierto/internal/pkg/errors"
	"github.com/siempreabierto/internal/pkg/validator"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// parseID читает положительный :id из пути
func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrInvalidRequest.WithReason("id must be a positive integer")
	}
	return id, nil
}

// queryLimit - ?limit= с ограничением сверху
func queryLimit(c *fiber.Ctx) int {
	limit := c.QueryInt("limit", defaultListLimit)
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// parseBody разбирает JSON тело и валидирует его
func parseBody(c *fiber.Ctx, req interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return errors.ErrInvalidRequest.WithReason("invalid request body")
		}
	}
	return validator.Validate(req)
}

// parseQuery разбирает query string и валидирует её
func parseQuery(c *fiber.Ctx, req interface{}) error {
	if err := c.QueryParser(req); err != nil {
		return errors.ErrInvalidRequest.WithReason("invalid query parameters")
	}
	return validator.Validate(req)
}
