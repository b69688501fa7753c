package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/camden-git/moviesysbackend/models"
	"gorm.io/gorm"
)

// GormMovieRepository handles database operations for Movie entities
type GormMovieRepository struct {
	DB *gorm.DB
}

// NewGormMovieRepository creates a new instance of GormMovieRepository
func NewGormMovieRepository(db *gorm.DB) *GormMovieRepository {
	return &GormMovieRepository{DB: db}
}

// Create creates a new movie record in the database
func (r *GormMovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	movie.ID = 0
	err := r.DB.WithContext(ctx).Create(movie).Error
	if err != nil {
		return fmt.Errorf("failed to create movie %s: %w", movie.Title, err)
	}
	return nil
}

// ListAll retrieves all movies in insertion order
func (r *GormMovieRepository) ListAll(ctx context.Context) ([]models.Movie, error) {
	movies := []models.Movie{}
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&movies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// GetByID retrieves a movie by its ID
func (r *GormMovieRepository) GetByID(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	err := r.DB.WithContext(ctx).First(&movie, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get movie by ID %d: %w", id, err)
	}
	return &movie, nil
}

// Update applies the supplied fields and returns the stored row
func (r *GormMovieRepository) Update(ctx context.Context, id uint, patch models.MoviePatch) (*models.Movie, error) {
	var movie models.Movie
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&movie, id).Error; err != nil {
			return err
		}
		cols := patch.Columns()
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&models.Movie{ID: id}).Updates(cols).Error; err != nil {
			return err
		}
		patch.Apply(&movie)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to update movie ID %d: %w", id, err)
	}
	return &movie, nil
}

// Delete removes a movie by its ID
func (r *GormMovieRepository) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&models.Movie{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete movie ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ReferencesActor reports whether any movie points at the actor
func (r *GormMovieRepository) ReferencesActor(ctx context.Context, actorID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Movie{}).Where("actor_id = ?", actorID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count movies for actor ID %d: %w", actorID, err)
	}
	return count > 0, nil
}

// DeleteByActorID removes every movie that points at the actor
func (r *GormMovieRepository) DeleteByActorID(ctx context.Context, actorID uint) (int64, error) {
	result := r.DB.WithContext(ctx).Where("actor_id = ?", actorID).Delete(&models.Movie{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete movies for actor ID %d: %w", actorID, result.Error)
	}
	return result.RowsAffected, nil
}
