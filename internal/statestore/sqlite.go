package statestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stateEntry struct {
	Key   string `gorm:"primaryKey;column:key"`
	Value []byte `gorm:"column:value"`
}

func (stateEntry) TableName() string {
	return "client_state"
}

type sqliteStore struct {
	conn *gorm.DB
}

// OpenSQLite boots a GORM-backed store on a local SQLite file.
func OpenSQLite(path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	if err := conn.AutoMigrate(&stateEntry{}); err != nil {
		return nil, fmt.Errorf("migrating state table: %w", err)
	}

	return &sqliteStore{conn: conn}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry stateEntry
	err := s.conn.WithContext(ctx).First(&entry, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "read state")
	}
	return entry.Value, nil
}

func (s *sqliteStore) Put(ctx context.Context, key string, value []byte) error {
	entry := stateEntry{Key: key, Value: value}
	err := s.conn.WithContext(ctx).Save(&entry).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "write state")
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	err := s.conn.WithContext(ctx).Delete(&stateEntry{}, "key = ?", key).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "delete state")
	}
	return nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
