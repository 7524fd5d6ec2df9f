package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

const batchColumns = `id, product_id, quantity, expiry_date, created_at`

type batchRow struct {
	ID         string         `db:"id"`
	ProductID  string         `db:"product_id"`
	Quantity   int            `db:"quantity"`
	ExpiryDate sql.NullString `db:"expiry_date"`
	CreatedAt  time.Time      `db:"created_at"`
}

// batchRepository rewrites the product's current_stock and expiry_date from
// its batches in the same transaction as every batch change.
type batchRepository struct{ s *Store }

func (r *batchRepository) FindByProductID(ctx context.Context, productID string) ([]model.Batch, error) {
	var exists bool
	if err := r.s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, productID); err != nil {
		return nil, errors.Wrapf(err, "failed to check product %s", productID)
	}
	if !exists {
		return nil, model.ErrProductNotFound
	}

	var rows []batchRow
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE product_id = ? AND quantity > 0`
	if err := r.s.db.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, errors.Wrapf(err, "failed to list batches of product %s", productID)
	}

	batches := make([]model.Batch, 0, len(rows))
	for _, row := range rows {
		batches = append(batches, model.Batch{
			ID:         row.ID,
			ProductID:  row.ProductID,
			Quantity:   row.Quantity,
			ExpiryDate: r.s.readDate(row.ExpiryDate, "inventory_batches.expiry_date", row.ID),
			CreatedAt:  row.CreatedAt,
		})
	}
	return batches, nil
}

func (r *batchRepository) ApplyConsumption(ctx context.Context, productID string, changes []model.BatchChange) error {
	return r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockProduct(ctx, tx, productID); err != nil {
			return err
		}

		for _, change := range changes {
			if change.Quantity < 0 {
				return model.ErrNegativeStock
			}

			var (
				result sql.Result
				err    error
			)
			if change.Quantity == 0 {
				result, err = tx.ExecContext(ctx,
					`DELETE FROM inventory_batches WHERE id = ? AND product_id = ?`,
					change.BatchID, productID)
			} else {
				result, err = tx.ExecContext(ctx,
					`UPDATE inventory_batches SET quantity = ? WHERE id = ? AND product_id = ?`,
					change.Quantity, change.BatchID, productID)
			}
			if err != nil {
				return errors.Wrapf(err, "failed to update batch %s", change.BatchID)
			}
			// The batch was consumed by someone else since it was read.
			if err := expectOneRow(result, model.ErrInsufficientStock); err != nil {
				return err
			}
		}

		return r.syncProduct(ctx, tx, productID)
	})
}

func (r *batchRepository) Receive(ctx context.Context, batch model.Batch) error {
	if batch.Quantity <= 0 {
		return model.ErrInvalidQuantity
	}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = r.s.now()
	}

	return r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockProduct(ctx, tx, batch.ProductID); err != nil {
			return err
		}

		state, err := r.stockState(ctx, tx, batch.ProductID)
		if err != nil {
			return err
		}
		if err := model.CheckStockAddition(state.Stock, batch.Quantity); err != nil {
			return err
		}
		if batch.ExpiryDate == nil && state.Batches == 0 {
			batch.ExpiryDate = r.s.readDate(state.Expiry, "products.expiry_date", batch.ProductID)
		}

		query := `INSERT INTO inventory_batches (` + batchColumns + `) VALUES (?, ?, ?, ?, ?)`
		_, err = tx.ExecContext(ctx, query,
			batch.ID,
			batch.ProductID,
			batch.Quantity,
			r.s.writeDate(batch.ExpiryDate),
			batch.CreatedAt.UTC(),
		)
		if err != nil {
			return errors.Wrapf(err, "failed to insert batch for product %s", batch.ProductID)
		}

		return r.syncProduct(ctx, tx, batch.ProductID)
	})
}

func (r *batchRepository) SetExpiry(ctx context.Context, productID string, expiry *dates.CalendarDate) error {
	return r.s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockProduct(ctx, tx, productID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE inventory_batches SET expiry_date = ? WHERE product_id = ?`,
			r.s.writeDate(expiry), productID)
		if err != nil {
			return errors.Wrapf(err, "failed to re-date batches of product %s", productID)
		}
		n, err := rowsAffected(result)
		if err != nil {
			return err
		}
		if n > 0 {
			return r.syncProduct(ctx, tx, productID)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE products SET expiry_date = ?, updated_at = ? WHERE id = ?`,
			r.s.writeDate(expiry), r.s.now(), productID)
		return errors.Wrapf(err, "failed to set expiry of product %s", productID)
	})
}

type stockState struct {
	Stock   int            `db:"current_stock"`
	Expiry  sql.NullString `db:"expiry_date"`
	Batches int            `db:"batches"`
}

func (r *batchRepository) stockState(ctx context.Context, tx *sqlx.Tx, productID string) (stockState, error) {
	var state stockState
	err := tx.GetContext(ctx, &state, `
		SELECT current_stock, expiry_date,
			(SELECT COUNT(*) FROM inventory_batches WHERE product_id = ?) AS batches
		FROM products WHERE id = ?`, productID, productID)
	return state, errors.Wrapf(err, "failed to read stock of product %s", productID)
}

// syncProduct sets current_stock to the sum of the batches and expiry_date to
// the earliest dated batch. Dates are compared after parsing since stored
// strings may mix formats.
func (r *batchRepository) syncProduct(ctx context.Context, tx *sqlx.Tx, productID string) error {
	var rows []batchRow
	query := `SELECT ` + batchColumns + ` FROM inventory_batches WHERE product_id = ?`
	if err := tx.SelectContext(ctx, &rows, query, productID); err != nil {
		return errors.Wrapf(err, "failed to list batches of product %s", productID)
	}

	stock := 0
	var earliest *dates.CalendarDate
	for _, row := range rows {
		stock += row.Quantity
		d := r.s.readDate(row.ExpiryDate, "inventory_batches.expiry_date", row.ID)
		if d != nil && (earliest == nil || d.Before(*earliest)) {
			earliest = d
		}
	}

	_, err := tx.ExecContext(ctx,
		`UPDATE products SET current_stock = ?, expiry_date = ?, updated_at = ? WHERE id = ?`,
		stock, r.s.writeDate(earliest), r.s.now(), productID)
	return errors.Wrapf(err, "failed to sync stock of product %s", productID)
}

func lockProduct(ctx context.Context, tx *sqlx.Tx, productID string) error {
	var id string
	err := tx.GetContext(ctx, &id, `SELECT id FROM products WHERE id = ? FOR UPDATE`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrProductNotFound
	}
	return errors.Wrapf(err, "failed to lock product %s", productID)
}
