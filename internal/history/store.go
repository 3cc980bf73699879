// Package history keeps a local SQLite log of persisted observations,
// queryable independently of the round robin database.
package history

import (
	"context"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"weather-agent/internal/model"
)

// Store wraps the sqlite connection.
type Store struct {
	orm *gorm.DB
}

// Open opens the SQLite database using GORM and runs migrations.
func Open(path string) (*Store, error) {
	g, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := g.AutoMigrate(&model.Observation{}); err != nil {
		closeORM(g)
		return nil, err
	}
	return &Store{orm: g}, nil
}

// Save inserts one observation row.
func (s *Store) Save(ctx context.Context, obs *model.Observation) error {
	return s.orm.WithContext(ctx).Create(obs).Error
}

// Latest returns the most recent observations, newest first. limit <= 0
// returns all rows.
func (s *Store) Latest(ctx context.Context, limit int) ([]model.Observation, error) {
	q := s.orm.WithContext(ctx).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []model.Observation
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of stored observations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.orm.WithContext(ctx).Model(&model.Observation{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Close() error { return closeORM(s.orm) }

func closeORM(g *gorm.DB) error {
	sqlDB, err := g.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
