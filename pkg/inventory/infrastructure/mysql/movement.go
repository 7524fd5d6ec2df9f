package mysql

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"stockly/pkg/inventory/domain/model"
)

type movementRow struct {
	ID        string    `db:"id"`
	ProductID string    `db:"product_id"`
	Type      string    `db:"type"`
	Quantity  int       `db:"quantity"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

type movementRepository struct{ s *Store }

func (r *movementRepository) Append(ctx context.Context, movement model.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, type, quantity, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.s.db.ExecContext(ctx, query,
		movement.ID,
		movement.ProductID,
		string(movement.Type),
		movement.Quantity,
		movement.Reason,
		movement.CreatedAt.UTC(),
	)
	if isForeignKeyViolation(err) {
		return model.ErrProductNotFound
	}
	return errors.Wrapf(err, "failed to record movement for product %s", movement.ProductID)
}

func (r *movementRepository) FindByProductID(ctx context.Context, productID string) ([]model.StockMovement, error) {
	var rows []movementRow
	query := `
		SELECT id, product_id, type, quantity, reason, created_at
		FROM stock_movements
		WHERE product_id = ?
		ORDER BY created_at, id
	`
	if err := r.s.db.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, errors.Wrapf(err, "failed to list movements of product %s", productID)
	}

	movements := make([]model.StockMovement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, model.StockMovement{
			ID:        row.ID,
			ProductID: row.ProductID,
			Type:      model.MovementType(row.Type),
			Quantity:  row.Quantity,
			Reason:    row.Reason,
			CreatedAt: row.CreatedAt,
		})
	}
	return movements, nil
}
