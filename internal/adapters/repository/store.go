// Package repository defines the canonical risk table store and its errors.
package repository

import (
	"context"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
)

// Store provides read-only access to the canonical risk table. No write
// path exists after Build; a reload replaces the whole store.
type Store interface {
	// Get returns the record for a normalized id.
	Get(ctx context.Context, id string) (*model.GeneRecord, bool)

	// PrefixSearch returns up to limit ids whose normalized form starts
	// with the normalized text, ordered lexicographically. Empty text
	// yields the first limit ids in table order.
	PrefixSearch(ctx context.Context, text string, limit int) []string

	// IDs returns all normalized ids in lexicographic order.
	IDs(ctx context.Context) []string

	// Columns returns the ordered attribute partition.
	Columns(ctx context.Context) model.Columns

	// Count returns the number of records in the table.
	Count(ctx context.Context) int
}
