package utils

import "github.com/gofiber/fiber/v2"

const (
	defaultLimit = 10
	maxLimit     = 50
)

// Pagination reads the skip/limit query parameters, clamping limit to [1, 50].
func Pagination(c *fiber.Ctx) (skip, limit int) {
	skip = c.QueryInt("skip", 0)
	limit = c.QueryInt("limit", defaultLimit)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
