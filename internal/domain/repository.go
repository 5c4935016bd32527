package domain

import (
	"context"
)

// WorksheetRepository defines the interface for worksheet persistence
type WorksheetRepository interface {
	// Save persists the worksheet snapshot
	Save(ctx context.Context, worksheet *Worksheet) error

	// FindByID retrieves a worksheet by ID
	FindByID(ctx context.Context, id string) (*Worksheet, error)

	// FindAll retrieves all stored worksheets
	FindAll(ctx context.Context) ([]*Worksheet, error)

	// Delete removes a worksheet snapshot
	Delete(ctx context.Context, id string) error
}
