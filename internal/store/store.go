// Package store is the single persistence gateway. Every statement runs on a
// pooled connection, failures are logged here and surfaced as StorageFailure,
// and "no rows" is never an error.
package store

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studygrouphub/backend/pkg/logger"
	"github.com/studygrouphub/backend/pkg/response"
)

// Store wraps a gorm handle. The zero value is not usable.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// QueryOne scans the first row into dest. found is false when there are no
// rows.
func (s *Store) QueryOne(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	result := s.db.WithContext(ctx).Raw(query, args...).Scan(dest)
	if result.Error != nil {
		return false, s.fail("query one", query, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// QueryAll scans every row into dest, which must point to a slice. An empty
// result leaves dest as an empty, non-nil slice.
func (s *Store) QueryAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := s.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error; err != nil {
		return s.fail("query all", query, err)
	}
	ensureSlice(dest)
	return nil
}

// Execute runs a write statement and returns the affected row count.
func (s *Store) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result := s.db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return 0, s.fail("execute", query, result.Error)
	}
	return result.RowsAffected, nil
}

// Insert creates model and populates its generated primary key.
func (s *Store) Insert(ctx context.Context, model interface{}) error {
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return s.fail("insert", fmt.Sprintf("%T", model), err)
	}
	return nil
}

// Upsert inserts model or, on a conflict over conflictColumns, overwrites
// updateColumns.
func (s *Store) Upsert(ctx context.Context, model interface{}, conflictColumns, updateColumns []string) error {
	cols := make([]clause.Column, len(conflictColumns))
	for i, name := range conflictColumns {
		cols[i] = clause.Column{Name: name}
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(updateColumns),
	}).Create(model).Error
	if err != nil {
		return s.fail("upsert", fmt.Sprintf("%T", model), err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) fail(op, query string, err error) error {
	logger.Error().Err(err).Str("op", op).Str("sql", query).Msg("Database operation failed")
	return &storageError{AppError: response.NewStorageFailure("数据库操作失败"), cause: err}
}

// storageError keeps the driver error reachable through errors.Unwrap while
// rendering as a generic StorageFailure.
type storageError struct {
	*response.AppError
	cause error
}

func (e *storageError) Unwrap() []error {
	return []error{e.AppError, e.cause}
}

func ensureSlice(dest interface{}) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return
	}
	elem := v.Elem()
	if elem.Kind() == reflect.Slice && elem.IsNil() {
		elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	}
}
