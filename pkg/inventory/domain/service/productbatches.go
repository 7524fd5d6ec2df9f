package service

import (
	"context"
	"fmt"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

// NewProductBatchRepository serves the single-row stock model: each product's
// currentStock and expiryDate form one implicit batch whose id is the product id.
func NewProductBatchRepository(products model.ProductRepository) model.BatchRepository {
	return &productBatchRepository{products: products}
}

type productBatchRepository struct {
	products model.ProductRepository
}

func (r *productBatchRepository) FindByProductID(ctx context.Context, productID string) ([]model.Batch, error) {
	p, err := r.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.CurrentStock <= 0 {
		return nil, nil
	}
	return []model.Batch{{
		ID:         p.ID,
		ProductID:  p.ID,
		Quantity:   p.CurrentStock,
		ExpiryDate: p.ExpiryDate,
		CreatedAt:  p.CreatedAt,
	}}, nil
}

func (r *productBatchRepository) ApplyConsumption(ctx context.Context, productID string, changes []model.BatchChange) error {
	if len(changes) == 0 {
		return nil
	}
	if len(changes) > 1 || changes[0].BatchID != productID {
		return fmt.Errorf("product %s has a single implicit batch, got %d changes", productID, len(changes))
	}
	if changes[0].Quantity < 0 {
		return model.ErrNegativeStock
	}
	return r.products.UpdateStock(ctx, productID, changes[0].Quantity)
}

func (r *productBatchRepository) Receive(ctx context.Context, batch model.Batch) error {
	if batch.Quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	p, err := r.products.GetByID(ctx, batch.ProductID)
	if err != nil {
		return err
	}
	if err := model.CheckStockAddition(p.CurrentStock, batch.Quantity); err != nil {
		return err
	}
	if batch.ExpiryDate == nil {
		return r.products.UpdateStock(ctx, p.ID, p.CurrentStock+batch.Quantity)
	}

	p.CurrentStock += batch.Quantity
	p.ExpiryDate = batch.ExpiryDate
	return r.products.Update(ctx, p)
}

func (r *productBatchRepository) SetExpiry(ctx context.Context, productID string, expiry *dates.CalendarDate) error {
	p, err := r.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	p.ExpiryDate = expiry
	return r.products.Update(ctx, p)
}
