package helper

import (
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const DefaultPage = 1

type PaginationOptions struct {
	DefaultPerPage int
	MaxPerPage     int
}

var (
	DefaultOpts = PaginationOptions{DefaultPerPage: 25, MaxPerPage: 200}
	AdminOpts   = PaginationOptions{DefaultPerPage: 50, MaxPerPage: 500}
)

type PaginationParams struct {
	Page      int
	PerPage   int
	SortOrder string // asc|desc
}

// ParseFiber reads page/per_page/order from the query string.
func ParseFiber(c *fiber.Ctx, defaultSortOrder string, opt PaginationOptions) PaginationParams {
	page := atoiDefault(c.Query("page"), DefaultPage)
	if page < 1 {
		page = DefaultPage
	}

	per := opt.DefaultPerPage
	if n, err := strconv.Atoi(firstNonEmpty(c.Query("per_page"), c.Query("limit"))); err == nil && n > 0 {
		per = n
	}
	if per > opt.MaxPerPage {
		per = opt.MaxPerPage
	}

	order := strings.ToLower(strings.TrimSpace(firstNonEmpty(c.Query("order"), c.Query("sort"))))
	if order != "asc" && order != "desc" {
		order = strings.ToLower(defaultSortOrder)
		if order != "asc" && order != "desc" {
			order = "desc"
		}
	}

	return PaginationParams{Page: page, PerPage: per, SortOrder: order}
}

func (p PaginationParams) Limit() int  { return p.PerPage }
func (p PaginationParams) Offset() int { return (p.Page - 1) * p.PerPage }

type PaginationMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

func BuildMeta(total int64, p PaginationParams) PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.PerPage)))
	}
	return PaginationMeta{
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    p.Page > 1,
		HasNext:    totalPages > 0 && p.Page < totalPages,
	}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
