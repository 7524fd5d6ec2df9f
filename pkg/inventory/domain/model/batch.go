package model

import (
	"context"
	"time"

	"stockly/pkg/common/dates"
)

// Batch is a quantity of one product sharing an expiry date.
type Batch struct {
	ID         string
	ProductID  string
	Quantity   int
	ExpiryDate *dates.CalendarDate
	CreatedAt  time.Time
}

// BatchChange sets a batch to Quantity; zero removes the batch.
type BatchChange struct {
	BatchID  string
	Quantity int
}

type BatchRepository interface {
	// FindByProductID returns ErrProductNotFound when the product does not exist.
	FindByProductID(ctx context.Context, productID string) ([]Batch, error)
	// ApplyConsumption commits every change or none of them.
	ApplyConsumption(ctx context.Context, productID string, changes []BatchChange) error
	// Receive adds a batch. An undated batch arriving at a product without
	// batches takes the product's expiry date. Fails with ErrStockOverflow when
	// the total would pass MaxStock.
	Receive(ctx context.Context, batch Batch) error
	// SetExpiry re-dates every batch of the product; nil clears the dates. A
	// product without batches keeps the date on its own row.
	SetExpiry(ctx context.Context, productID string, expiry *dates.CalendarDate) error
}
