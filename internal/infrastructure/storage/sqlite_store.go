package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/store"
)

// BlobRecord is the gorm model behind SQLiteBlobStore.
type BlobRecord struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

// TableName pins the table name regardless of gorm naming strategy.
func (BlobRecord) TableName() string {
	return defaultBlobTable
}

// SQLiteBlobStore stores blobs in a local SQLite database through gorm.
type SQLiteBlobStore struct {
	db *gorm.DB
}

var _ ports.BlobStore = (*SQLiteBlobStore)(nil)

// OpenSQLite opens (or creates) the database file and migrates the schema.
func OpenSQLite(path string) (*SQLiteBlobStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&BlobRecord{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteBlobStore{db: db}, nil
}

// Get returns the value stored under key or store.ErrNotFound.
func (s *SQLiteBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec BlobRecord
	err := s.db.WithContext(ctx).First(&rec, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return rec.Value, nil
}

// Put upserts the value under key.
func (s *SQLiteBlobStore) Put(ctx context.Context, key string, value []byte) error {
	rec := BlobRecord{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("sqlite put %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying sql.DB.
func (s *SQLiteBlobStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
