package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"solartycoon/internal/config"
)

var ErrNotFound = errors.New("snapshot not found")

// Store is a local key/value home for encoded snapshots.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// SaveRecord is one row of the sqlite-backed store.
type SaveRecord struct {
	Key       string `gorm:"column:save_key;primaryKey;size:128"`
	Data      []byte
	UpdatedAt time.Time
}

func (SaveRecord) TableName() string { return "save_records" }

type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a sqlite file.
func OpenSQLite(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&SaveRecord{}); err != nil {
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var rec SaveRecord
	err := s.db.WithContext(ctx).Where("save_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.Data, nil
}

func (s *SQLStore) Put(ctx context.Context, key string, data []byte) error {
	rec := SaveRecord{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "save_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&rec).Error
}

type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, key, data, 0).Err()
}

// OpenStore builds the local store selected by cfg.LocalDriver. The returned
// closer releases the underlying connection.
func OpenStore(cfg config.PersistenceConfig) (Store, func() error, error) {
	switch cfg.LocalDriver {
	case config.LocalDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client), client.Close, nil
	default:
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := NewSQLStore(db)
		if err != nil {
			return nil, nil, err
		}
		closer := func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return store, closer, nil
	}
}
