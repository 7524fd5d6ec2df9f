package model

import (
	"context"
	"time"
)

type MovementType string

const (
	MovementAdd     MovementType = "add"
	MovementRemove  MovementType = "remove"
	MovementExpired MovementType = "expired"
)

type StockMovement struct {
	ID        string
	ProductID string
	Type      MovementType
	Quantity  int
	Reason    string
	CreatedAt time.Time
}

type MovementRepository interface {
	Append(ctx context.Context, movement StockMovement) error
	FindByProductID(ctx context.Context, productID string) ([]StockMovement, error)
}
