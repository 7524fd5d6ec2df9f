package model

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrTemplateNotFound      = errors.New("template item not found")
	ErrInvalidPriority       = errors.New("priority must be one of high, medium, low")
	ErrNegativeIdealQuantity = errors.New("ideal quantity cannot be negative")
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority accepts the three levels in any case; empty input is medium.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	}
	return "", ErrInvalidPriority
}

func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// TemplateItem is the standing stock level wanted for one product.
type TemplateItem struct {
	ID            string
	ProductID     string
	IdealQuantity int
	Priority      Priority
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TemplateRepository interface {
	GetAll(ctx context.Context) ([]TemplateItem, error)
	GetByProductID(ctx context.Context, productID string) (*TemplateItem, error)
	// Upsert creates the product's template item or updates the existing one.
	Upsert(ctx context.Context, productID string, idealQuantity int, priority Priority) (*TemplateItem, error)
	DeleteByProductID(ctx context.Context, productID string) error
}
