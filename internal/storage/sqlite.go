package storage

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fixedttl-cache/internal/cache"
	"fixedttl-cache/internal/errs"
	"fixedttl-cache/internal/models"
)

// SQLiteStorage keeps cache entries in the cache_entries table.
//
// The Storage capability has no error returns, so failures are passed to the
// error handler, which logs them by default. Reads that fail report a miss.
type SQLiteStorage struct {
	db      *gorm.DB
	onError func(error)
}

var _ cache.Backend[string, string] = (*SQLiteStorage)(nil)

// NewSQLiteStorage returns a storage over db. Existing rows are cleared: the
// cache has no expiration records for them.
func NewSQLiteStorage(db *gorm.DB, log *zap.Logger) (*SQLiteStorage, error) {
	if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Entry{}).Error; err != nil {
		return nil, errs.Wrap(err, "clear cache entries")
	}

	log = log.With(zap.String("component", "storage.sqlite"))
	return &SQLiteStorage{
		db: db,
		onError: func(err error) {
			log.Error("sqlite storage operation failed", zap.Error(err))
		},
	}, nil
}

// WithErrorHandler replaces the handler receiving storage errors.
func (s *SQLiteStorage) WithErrorHandler(fn func(error)) *SQLiteStorage {
	if fn != nil {
		s.onError = fn
	}
	return s
}

// Insert implements cache.Storage.Insert as an upsert.
func (s *SQLiteStorage) Insert(key, value string) {
	row := models.Entry{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		s.onError(errs.Wrapf(err, "upsert cache key %q", key))
	}
}

// Remove implements cache.Storage.Remove. Missing keys are a no-op.
func (s *SQLiteStorage) Remove(key string) {
	if err := s.db.Where("key = ?", key).Delete(&models.Entry{}).Error; err != nil {
		s.onError(errs.Wrapf(err, "delete cache key %q", key))
	}
}

// Get implements cache.Backend.Get.
func (s *SQLiteStorage) Get(key string) (string, bool) {
	var row models.Entry
	if err := s.db.Where("key = ?", key).Take(&row).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.onError(errs.Wrapf(err, "query cache key %q", key))
		}
		return "", false
	}
	return row.Value, true
}

// Len implements cache.Backend.Len.
func (s *SQLiteStorage) Len() int {
	var n int64
	if err := s.db.Model(&models.Entry{}).Count(&n).Error; err != nil {
		s.onError(errs.Wrap(err, "count cache keys"))
		return 0
	}
	return int(n)
}

// Keys implements cache.Backend.Keys, in ascending key order.
func (s *SQLiteStorage) Keys() []string {
	var keys []string
	if err := s.db.Model(&models.Entry{}).Order("key").Pluck("key", &keys).Error; err != nil {
		s.onError(errs.Wrap(err, "list cache keys"))
		return nil
	}
	return keys
}
