package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"stockly/pkg/common/dates"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock quantity")
	ErrInvalidQuantity   = errors.New("quantity must be a positive number")
	ErrNegativeStock     = errors.New("stock cannot be negative")
	ErrEmptyProductName  = errors.New("product name cannot be empty")
	ErrStockOverflow     = errors.New("stock would exceed the maximum quantity")
)

// MaxStock bounds any product's stock so it fits the INT columns of the store.
const MaxStock = math.MaxInt32

// CheckStockAddition reports ErrStockOverflow when adding quantity to stock
// would pass MaxStock.
func CheckStockAddition(stock, quantity int) error {
	if quantity > MaxStock || stock > MaxStock-quantity {
		return ErrStockOverflow
	}
	return nil
}

// UncategorizedLabel is the legacy sentinel stored for products without a category.
const UncategorizedLabel = "Sin categoría"

// InsufficientStockError matches ErrInsufficientStock and carries the missing units.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Shortfall int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: %d units short of %d requested",
		e.ProductID, e.Shortfall, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

type Product struct {
	ID           string
	Name         string
	Category     string // empty means uncategorized
	Description  string
	CurrentStock int
	ExpiryDate   *dates.CalendarDate
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeCategory maps every spelling of "no category" to the empty string.
func NormalizeCategory(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, UncategorizedLabel) || strings.EqualFold(s, "uncategorized") {
		return ""
	}
	return s
}

type ProductRepository interface {
	NextID() (string, error)
	GetAll(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
	UpdateStock(ctx context.Context, id string, newStock int) error
}
