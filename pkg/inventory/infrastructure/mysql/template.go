package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"stockly/pkg/inventory/domain/model"
)

const templateColumns = `id, product_id, ideal_quantity, priority, created_at, updated_at`

type templateRow struct {
	ID            string    `db:"id"`
	ProductID     string    `db:"product_id"`
	IdealQuantity int       `db:"ideal_quantity"`
	Priority      string    `db:"priority"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row templateRow) toModel() model.TemplateItem {
	priority, err := model.ParsePriority(row.Priority)
	if err != nil {
		priority = model.PriorityMedium
	}
	return model.TemplateItem{
		ID:            row.ID,
		ProductID:     row.ProductID,
		IdealQuantity: row.IdealQuantity,
		Priority:      priority,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

type templateRepository struct{ s *Store }

func (r *templateRepository) GetAll(ctx context.Context) ([]model.TemplateItem, error) {
	var rows []templateRow
	query := `SELECT ` + templateColumns + ` FROM template_items ORDER BY product_id`
	if err := r.s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "failed to list template items")
	}

	items := make([]model.TemplateItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toModel())
	}
	return items, nil
}

func (r *templateRepository) GetByProductID(ctx context.Context, productID string) (*model.TemplateItem, error) {
	var row templateRow
	query := `SELECT ` + templateColumns + ` FROM template_items WHERE product_id = ?`
	err := r.s.db.GetContext(ctx, &row, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTemplateNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to find template item of product %s", productID)
	}

	item := row.toModel()
	return &item, nil
}

func (r *templateRepository) Upsert(ctx context.Context, productID string, idealQuantity int, priority model.Priority) (*model.TemplateItem, error) {
	if idealQuantity < 0 {
		return nil, model.ErrNegativeIdealQuantity
	}

	now := r.s.now()
	query := `
		INSERT INTO template_items (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			ideal_quantity = VALUES(ideal_quantity),
			priority = VALUES(priority),
			updated_at = VALUES(updated_at)
	`
	_, err := r.s.db.ExecContext(ctx, query, uuid.NewString(), productID, idealQuantity, string(priority), now, now)
	if isForeignKeyViolation(err) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to save template item of product %s", productID)
	}
	return r.GetByProductID(ctx, productID)
}

func (r *templateRepository) DeleteByProductID(ctx context.Context, productID string) error {
	result, err := r.s.db.ExecContext(ctx, `DELETE FROM template_items WHERE product_id = ?`, productID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete template item of product %s", productID)
	}
	return expectOneRow(result, model.ErrTemplateNotFound)
}
