package mysql

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type settingsRepository struct{ s *Store }

func (r *settingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE `key` = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read setting %s", key)
	}
	return value, true, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	query := "INSERT INTO settings (`key`, value) VALUES (?, ?) ON DUPLICATE KEY UPDATE value = VALUES(value)"
	_, err := r.s.db.ExecContext(ctx, query, key, value)
	return errors.Wrapf(err, "failed to write setting %s", key)
}
