// Package domain holds the minimal patient read model used when materializing
// patient-facing invoice documents. Patient administration lives elsewhere.
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Patient struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	FirstName string       `gorm:"type:text;not null"`
	LastName  string       `gorm:"type:text;not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Patient) TableName() string { return "patients" }

// FullName returns the display name for invoice documents.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Patient, error)
}
