package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

func WithLimit(limit int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithOffset(offset int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if offset <= 0 {
			return db
		}
		return db.Offset(offset)
	})
}

// WithIDBefore restricts a descending id scan to rows past a keyset cursor.
func WithIDBefore(id int64) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if id <= 0 {
			return db
		}
		return db.Where("id < ?", id)
	})
}

func WithSortBy(order string) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(order) == "" {
			return db
		}
		return db.Order(order)
	})
}

// WithQuerySortBy sanitizes user-supplied sort parameters against an
// allow-list before building an ORDER BY clause.
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) string {
	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" || !allowed[sortBy] {
		return ""
	}
	direction := "ASC"
	if strings.EqualFold(strings.TrimSpace(orderBy), "desc") {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s", sortBy, direction)
}
