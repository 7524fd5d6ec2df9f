// Package mysql stores the inventory in MySQL through sqlx.
package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"stockly/pkg/common/dates"
	"stockly/pkg/inventory/domain/model"
)

const errForeignKeyViolation = 1452

type Store struct {
	db     *sqlx.DB
	loc    *time.Location
	clock  dates.Clock
	logger logrus.FieldLogger
}

func NewStore(db *sqlx.DB, loc *time.Location, clock dates.Clock, logger logrus.FieldLogger) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: db, loc: loc, clock: clock, logger: logger}
}

func (s *Store) Products() model.ProductRepository   { return &productRepository{s} }
func (s *Store) Templates() model.TemplateRepository { return &templateRepository{s} }
func (s *Store) Batches() model.BatchRepository      { return &batchRepository{s} }
func (s *Store) Settings() model.SettingsRepository  { return &settingsRepository{s} }
func (s *Store) Movements() model.MovementRepository { return &movementRepository{s} }

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

// readDate treats a stored date that cannot be parsed as absent.
func (s *Store) readDate(raw sql.NullString, field, id string) *dates.CalendarDate {
	if !raw.Valid {
		return nil
	}
	d, err := dates.ParseStored(raw.String, s.loc)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"field": field, "id": id}).Warn("ignoring unparsable stored date")
		return nil
	}
	return d
}

func (s *Store) writeDate(d *dates.CalendarDate) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.StorageString(s.loc), Valid: true}
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

func isForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errForeignKeyViolation
}

func rowsAffected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	return n, errors.Wrap(err, "failed to get affected rows")
}
