package search

import (
	"strings"
	"unicode/utf8"

	"github.com/Kyz7/fincore/internal/database"
	"github.com/Kyz7/fincore/internal/middleware"
	"github.com/Kyz7/fincore/internal/response"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func SearchHandler(c *fiber.Ctx) error {
	params := Params{
		Query:    strings.TrimSpace(c.Query("q")),
		FromDate: c.Query("from"),
		ToDate:   c.Query("to"),
		Limit:    c.QueryInt("limit", 10),
	}
	if utf8.RuneCountInString(params.Query) < 2 {
		return response.BadRequest(c, "Search query must be at least 2 characters", nil)
	}
	if kinds := c.Query("kinds"); kinds != "" {
		params.Kinds = strings.Split(kinds, ",")
	}

	result, err := Search(database.DB, middleware.SessionFrom(c), params)
	if err != nil {
		zap.L().Error("search failed", zap.String("q", params.Query), zap.Error(err))
		return response.InternalError(c, "Search failed")
	}

	return response.Success(c, result, "Search completed successfully")
}
