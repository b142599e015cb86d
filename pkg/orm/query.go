// Package orm holds small gorm helpers shared by repositories.
package orm

import (
	"context"
	"errors"
	"math"
	"strings"

	"gorm.io/gorm"
)

// Page describes one slice of a larger result set.
type Page struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
	LastPage int   `json:"last_page"`
}

const maxPerPage = 100

// Normalize clamps page and perPage into sane bounds.
func Normalize(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// Paginate counts q, then loads the requested page into dest.
func Paginate(ctx context.Context, q *gorm.DB, page, perPage int, dest interface{}) (Page, error) {
	page, perPage = Normalize(page, perPage)

	var total int64
	if err := q.WithContext(ctx).Count(&total).Error; err != nil {
		return Page{}, err
	}

	err := q.WithContext(ctx).Offset((page - 1) * perPage).Limit(perPage).Find(dest).Error
	if err != nil {
		return Page{}, err
	}

	return Page{
		Page:     page,
		PerPage:  perPage,
		Total:    total,
		LastPage: int(math.Max(1, math.Ceil(float64(total)/float64(perPage)))),
	}, nil
}

// Like lower-cases s and wraps it in wildcards for a LOWER(col) LIKE ? match.
// User-typed wildcards are passed through.
func Like(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// NotFound reports whether err is gorm's record-not-found.
func NotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
