package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormStore is the durable Store backed by GORM.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore wraps an initialized and migrated GORM handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Actors() ActorRepository { return NewGormActorRepository(s.DB) }
func (s *GormStore) Movies() MovieRepository { return NewGormMovieRepository(s.DB) }

// Transaction runs fn inside a database transaction. Nested calls become
// savepoints.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}
	return sqlDB.Close()
}
