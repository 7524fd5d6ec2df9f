package service

import (
	"cmp"
	"context"
	"slices"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

// Draw is the part of one batch taken by a consumption.
type Draw struct {
	BatchID    string
	ExpiryDate *dates.CalendarDate
	Taken      int
	Remaining  int
}

type ConsumptionResult struct {
	ProductID      string
	Quantity       int
	Draws          []Draw
	RemainingStock int
}

// Changes lists the batch updates needed to commit the result.
func (r *ConsumptionResult) Changes() []model.BatchChange {
	changes := make([]model.BatchChange, 0, len(r.Draws))
	for _, d := range r.Draws {
		changes = append(changes, model.BatchChange{BatchID: d.BatchID, Quantity: d.Remaining})
	}
	return changes
}

type ConsumptionEngine interface {
	Consume(ctx context.Context, productID string, quantity int) (*ConsumptionResult, error)
}

func NewConsumptionEngine(batches model.BatchRepository) ConsumptionEngine {
	return &consumptionEngine{batches: batches}
}

type consumptionEngine struct {
	batches model.BatchRepository
}

func (e *consumptionEngine) Consume(ctx context.Context, productID string, quantity int) (*ConsumptionResult, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	batches, err := e.batches.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}

	result, err := PlanConsumption(productID, batches, quantity)
	if err != nil {
		return nil, err
	}

	if err := e.batches.ApplyConsumption(ctx, productID, result.Changes()); err != nil {
		return nil, err
	}
	return result, nil
}

// PlanConsumption takes quantity units from batches, soonest expiry first,
// without touching any store. Batches without stock are ignored.
func PlanConsumption(productID string, batches []model.Batch, quantity int) (*ConsumptionResult, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	available := make([]model.Batch, 0, len(batches))
	total := 0
	for _, b := range batches {
		if b.Quantity > 0 {
			if err := model.CheckStockAddition(total, b.Quantity); err != nil {
				return nil, err
			}
			available = append(available, b)
			total += b.Quantity
		}
	}
	if total < quantity {
		return nil, &model.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Shortfall: quantity - total,
		}
	}

	SortFIFO(available)

	result := &ConsumptionResult{
		ProductID:      productID,
		Quantity:       quantity,
		RemainingStock: total - quantity,
	}
	remaining := quantity
	for _, b := range available {
		if remaining == 0 {
			break
		}
		taken := min(remaining, b.Quantity)
		result.Draws = append(result.Draws, Draw{
			BatchID:    b.ID,
			ExpiryDate: b.ExpiryDate,
			Taken:      taken,
			Remaining:  b.Quantity - taken,
		})
		remaining -= taken
	}
	return result, nil
}

// SortFIFO orders batches by expiry date, undated batches last. Ties fall back
// to creation time and then id so the order is total.
func SortFIFO(batches []model.Batch) {
	slices.SortStableFunc(batches, func(a, b model.Batch) int {
		if c := compareExpiry(a.ExpiryDate, b.ExpiryDate); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func compareExpiry(a, b *dates.CalendarDate) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}
