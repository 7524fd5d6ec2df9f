package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"stockly/pkg/inventory/domain/model"
)

const productColumns = `id, name, category, description, current_stock, expiry_date, created_at, updated_at`

type productRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Category     string         `db:"category"`
	Description  string         `db:"description"`
	CurrentStock int            `db:"current_stock"`
	ExpiryDate   sql.NullString `db:"expiry_date"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type productRepository struct{ s *Store }

func (r *productRepository) toModel(row productRow) model.Product {
	return model.Product{
		ID:           row.ID,
		Name:         row.Name,
		Category:     model.NormalizeCategory(row.Category),
		Description:  row.Description,
		CurrentStock: row.CurrentStock,
		ExpiryDate:   r.s.readDate(row.ExpiryDate, "products.expiry_date", row.ID),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (r *productRepository) NextID() (string, error) {
	return uuid.NewString(), nil
}

func (r *productRepository) GetAll(ctx context.Context) ([]model.Product, error) {
	var rows []productRow
	query := `SELECT ` + productColumns + ` FROM products ORDER BY name, id`
	if err := r.s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to list products")
	}

	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, r.toModel(row))
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var row productRow
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	err := r.s.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find product %s", id)
	}

	p := r.toModel(row)
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	if product.CurrentStock < 0 {
		return model.ErrNegativeStock
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.s.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Category,
		product.Description,
		product.CurrentStock,
		r.s.writeDate(product.ExpiryDate),
		product.CreatedAt.UTC(),
		product.UpdatedAt.UTC(),
	)
	return errors.Wrap(err, "failed to create product")
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	if product.CurrentStock < 0 {
		return model.ErrNegativeStock
	}

	query := `
		UPDATE products
		SET name = ?, category = ?, description = ?, current_stock = ?, expiry_date = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.s.db.ExecContext(ctx, query,
		product.Name,
		product.Category,
		product.Description,
		product.CurrentStock,
		r.s.writeDate(product.ExpiryDate),
		r.s.now(),
		product.ID,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to update product %s", product.ID)
	}
	return expectOneRow(result, model.ErrProductNotFound)
}

// Delete relies on ON DELETE CASCADE for template items, batches and movements.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	result, err := r.s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "failed to delete product %s", id)
	}
	return expectOneRow(result, model.ErrProductNotFound)
}

func (r *productRepository) UpdateStock(ctx context.Context, id string, newStock int) error {
	if newStock < 0 {
		return model.ErrNegativeStock
	}

	query := `UPDATE products SET current_stock = ?, updated_at = ? WHERE id = ?`
	result, err := r.s.db.ExecContext(ctx, query, newStock, r.s.now(), id)
	if err != nil {
		return errors.Wrapf(err, "failed to update stock of product %s", id)
	}
	return expectOneRow(result, model.ErrProductNotFound)
}

func expectOneRow(result sql.Result, notFound error) error {
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
