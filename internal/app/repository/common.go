package repository

import (
	"math"

	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// MaxPage keeps the row offset within a 32-bit signed integer.
	MaxPage = math.MaxInt32/MaxPageLimit + 1
)

// Page is a 1-based page request.
type Page struct {
	Page  int
	Limit int
}

// Normalize clamps the page to defaults and the maximum page and limit.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// versionedUpdate applies fields and bumps version in one statement. When
// expectedVersion is set the row only matches at that version, so a stale
// writer affects zero rows.
func versionedUpdate(tx *gorm.DB, mdl interface{}, id uint, expectedVersion *int, fields map[string]interface{}) *gorm.DB {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	q := tx.Model(mdl).Where("id = ?", id)
	if expectedVersion != nil {
		q = q.Where("version = ?", *expectedVersion)
	}
	return q.Updates(updates)
}
