package entity

import "github.com/google/uuid"

// Discount is a store's scheduled-visit discount definition.
type Discount struct {
	BaseNoDelete
	StoreID    uuid.UUID `db:"store_id"`
	Title      string    `db:"title"`
	Percentage float64   `db:"percentage"`
	IsActive   bool      `db:"is_active"`
}
