package repository

import (
	"context"
	"errors"

	"github.com/camden-git/moviesysbackend/models"
)

// ErrRecordNotFound is returned by every backend when the addressed row is absent.
var ErrRecordNotFound = errors.New("record not found")

// ActorRepository defines the methods for actor data operations
type ActorRepository interface {
	Create(ctx context.Context, actor *models.Actor) error
	ListAll(ctx context.Context) ([]models.Actor, error)
	GetByID(ctx context.Context, id uint) (*models.Actor, error)
	Update(ctx context.Context, id uint, patch models.ActorPatch) (*models.Actor, error)
	Delete(ctx context.Context, id uint) error
	Exists(ctx context.Context, id uint) (bool, error)
}

// MovieRepository defines the methods for movie data operations
type MovieRepository interface {
	Create(ctx context.Context, movie *models.Movie) error
	ListAll(ctx context.Context) ([]models.Movie, error)
	GetByID(ctx context.Context, id uint) (*models.Movie, error)
	Update(ctx context.Context, id uint, patch models.MoviePatch) (*models.Movie, error)
	Delete(ctx context.Context, id uint) error

	// actor reference management, used by the actor delete policy
	ReferencesActor(ctx context.Context, actorID uint) (bool, error)
	DeleteByActorID(ctx context.Context, actorID uint) (int64, error)
}

// Store groups both collections behind one transaction boundary.
//
// Transaction runs fn against a Store scoped to a single transaction. Calls
// made through that Store are isolated from concurrent writers. The database
// backends roll back when fn returns an error; the memory backend keeps
// whatever fn already wrote.
type Store interface {
	Actors() ActorRepository
	Movies() MovieRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
