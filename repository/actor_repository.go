package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/camden-git/moviesysbackend/models"
	"gorm.io/gorm"
)

// GormActorRepository handles database operations for Actor entities
type GormActorRepository struct {
	DB *gorm.DB
}

// NewGormActorRepository creates a new instance of GormActorRepository
func NewGormActorRepository(db *gorm.DB) *GormActorRepository {
	return &GormActorRepository{DB: db}
}

// Create creates a new actor record in the database
func (r *GormActorRepository) Create(ctx context.Context, actor *models.Actor) error {
	actor.ID = 0
	err := r.DB.WithContext(ctx).Create(actor).Error
	if err != nil {
		return fmt.Errorf("failed to create actor %s %s: %w", actor.FirstName, actor.LastName, err)
	}
	return nil
}

// ListAll retrieves all actors in insertion order
func (r *GormActorRepository) ListAll(ctx context.Context) ([]models.Actor, error) {
	actors := []models.Actor{}
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&actors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list actors: %w", err)
	}
	return actors, nil
}

// GetByID retrieves an actor by its ID
func (r *GormActorRepository) GetByID(ctx context.Context, id uint) (*models.Actor, error) {
	var actor models.Actor
	err := r.DB.WithContext(ctx).First(&actor, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get actor by ID %d: %w", id, err)
	}
	return &actor, nil
}

// Update applies the supplied fields and returns the stored row
func (r *GormActorRepository) Update(ctx context.Context, id uint, patch models.ActorPatch) (*models.Actor, error) {
	var actor models.Actor
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&actor, id).Error; err != nil {
			return err
		}
		cols := patch.Columns()
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&models.Actor{ID: id}).Updates(cols).Error; err != nil {
			return err
		}
		patch.Apply(&actor)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to update actor ID %d: %w", id, err)
	}
	return &actor, nil
}

// Delete removes an actor by its ID
func (r *GormActorRepository) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&models.Actor{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete actor ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Exists reports whether an actor with the given ID is stored
func (r *GormActorRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Actor{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check actor ID %d: %w", id, err)
	}
	return count > 0, nil
}
