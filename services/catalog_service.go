package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/camden-git/moviesysbackend/metrics"
	"github.com/camden-git/moviesysbackend/models"
	"github.com/camden-git/moviesysbackend/realtime"
	"github.com/camden-git/moviesysbackend/repository"
	"github.com/camden-git/moviesysbackend/validation"
)

// DeletePolicy decides what happens to movies when their actor is deleted.
type DeletePolicy string

const (
	// PolicyDangle leaves the movies in place with their old actorId.
	PolicyDangle   DeletePolicy = "dangle"
	PolicyRestrict DeletePolicy = "restrict"
	PolicyCascade  DeletePolicy = "cascade"
)

// Broadcaster receives an event after every successful write.
type Broadcaster interface {
	Broadcast(event realtime.Event)
}

// CatalogService runs the validation chain and the store writes for actors
// and movies.
type CatalogService struct {
	store  repository.Store
	rules  *validation.Validator
	policy DeletePolicy
	events Broadcaster
	log    zerolog.Logger
}

type Option func(*CatalogService)

func WithDeletePolicy(p DeletePolicy) Option {
	return func(s *CatalogService) {
		if p != "" {
			s.policy = p
		}
	}
}

func WithBroadcaster(b Broadcaster) Option {
	return func(s *CatalogService) { s.events = b }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *CatalogService) { s.log = l }
}

func NewCatalogService(store repository.Store, rules *validation.Validator, opts ...Option) *CatalogService {
	s := &CatalogService{
		store:  store,
		rules:  rules,
		policy: PolicyDangle,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the store is reachable.
func (s *CatalogService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *CatalogService) CreateActor(ctx context.Context, in validation.ActorInput) (*models.Actor, error) {
	if err := s.rules.ValidateActorCreate(in); err != nil {
		return nil, s.reject("actor", "create", fromValidation(err))
	}
	actor := &models.Actor{
		FirstName:   *in.FirstName,
		LastName:    *in.LastName,
		DateOfBirth: *in.DateOfBirth,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Actors().Create(ctx, actor)
	})
	if err != nil {
		return nil, s.reject("actor", "create", persistence("failed to create actor", err))
	}
	s.done("actor", "create", realtime.ActorCreated, actor.ID, nil)
	return actor, nil
}

func (s *CatalogService) ListActors(ctx context.Context) ([]models.Actor, error) {
	actors, err := s.store.Actors().ListAll(ctx)
	if err != nil {
		return nil, persistence("failed to list actors", err)
	}
	return actors, nil
}

func (s *CatalogService) GetActor(ctx context.Context, id uint) (*models.Actor, error) {
	actor, err := s.store.Actors().GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrActorNotFound, "failed to get actor")
	}
	return actor, nil
}

// UpdateActor applies the supplied fields. The patch is validated before the
// actor is looked up.
func (s *CatalogService) UpdateActor(ctx context.Context, id uint, patch models.ActorPatch) (*models.Actor, error) {
	if err := s.rules.ValidateActorPatch(patch); err != nil {
		return nil, s.reject("actor", "update", fromValidation(err))
	}
	var updated *models.Actor
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		updated, err = tx.Actors().Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, s.reject("actor", "update", lookupError(err, ErrActorNotFound, "failed to update actor"))
	}
	s.done("actor", "update", realtime.ActorUpdated, id, nil)
	return updated, nil
}

// DeleteActor removes the actor and, depending on the delete policy, refuses
// or removes the movies that reference it.
func (s *CatalogService) DeleteActor(ctx context.Context, id uint) error {
	var cascaded int64
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		ok, err := tx.Actors().Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrActorNotFound
		}

		switch s.policy {
		case PolicyRestrict:
			referenced, err := tx.Movies().ReferencesActor(ctx, id)
			if err != nil {
				return err
			}
			if referenced {
				return ErrActorInUse
			}
		case PolicyCascade:
			cascaded, err = tx.Movies().DeleteByActorID(ctx, id)
			if err != nil {
				return err
			}
		}
		return tx.Actors().Delete(ctx, id)
	})
	if err != nil {
		return s.reject("actor", "delete", lookupError(err, ErrActorNotFound, "failed to delete actor"))
	}

	s.done("actor", "delete", realtime.ActorDeleted, id, nil)
	if cascaded > 0 {
		s.log.Info().Uint("actor_id", id).Int64("movies", cascaded).Msg("cascaded actor delete to movies")
		s.publish(realtime.MoviesCascade, "movie", id, map[string]interface{}{"actorId": id, "count": cascaded})
	}
	return nil
}

func (s *CatalogService) CreateMovie(ctx context.Context, in validation.MovieInput) (*models.Movie, error) {
	if err := s.rules.ValidateMovieCreate(in); err != nil {
		return nil, s.reject("movie", "create", fromValidation(err))
	}
	movie := &models.Movie{
		Title:        *in.Title,
		CreationDate: *in.CreationDate,
		ActorID:      *in.ActorID,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		ok, err := validation.ActorExists(ctx, tx.Actors(), movie.ActorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrActorNotFound
		}
		return tx.Movies().Create(ctx, movie)
	})
	if err != nil {
		return nil, s.reject("movie", "create", lookupError(err, ErrActorNotFound, "failed to create movie"))
	}
	s.done("movie", "create", realtime.MovieCreated, movie.ID, map[string]interface{}{"actorId": movie.ActorID})
	return movie, nil
}

func (s *CatalogService) ListMovies(ctx context.Context) ([]models.Movie, error) {
	movies, err := s.store.Movies().ListAll(ctx)
	if err != nil {
		return nil, persistence("failed to list movies", err)
	}
	return movies, nil
}

func (s *CatalogService) GetMovie(ctx context.Context, id uint) (*models.Movie, error) {
	movie, err := s.store.Movies().GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrMovieNotFound, "failed to get movie")
	}
	return movie, nil
}

// UpdateMovie applies the supplied fields. A supplied actorId must name an
// existing actor; the check and the write share one transaction.
func (s *CatalogService) UpdateMovie(ctx context.Context, id uint, patch models.MoviePatch) (*models.Movie, error) {
	if err := s.rules.ValidateMoviePatch(patch); err != nil {
		return nil, s.reject("movie", "update", fromValidation(err))
	}
	var updated *models.Movie
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Movies().GetByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				return ErrMovieNotFound
			}
			return err
		}
		if patch.ActorID != nil {
			ok, err := validation.ActorExists(ctx, tx.Actors(), *patch.ActorID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrActorNotFound
			}
		}
		var err error
		updated, err = tx.Movies().Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, s.reject("movie", "update", lookupError(err, ErrMovieNotFound, "failed to update movie"))
	}
	s.done("movie", "update", realtime.MovieUpdated, id, map[string]interface{}{"actorId": updated.ActorID})
	return updated, nil
}

func (s *CatalogService) DeleteMovie(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Movies().Delete(ctx, id)
	})
	if err != nil {
		return s.reject("movie", "delete", lookupError(err, ErrMovieNotFound, "failed to delete movie"))
	}
	s.done("movie", "delete", realtime.MovieDeleted, id, nil)
	return nil
}

// lookupError keeps service errors as they are, turns a missing row into
// notFound and anything else into a persistence failure.
func lookupError(err error, notFound *Error, message string) error {
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}
	if errors.Is(err, repository.ErrRecordNotFound) {
		return notFound
	}
	return persistence(message, err)
}

func (s *CatalogService) reject(entity, operation string, err error) error {
	kind := KindOf(err)
	outcome := "rejected"
	ev := s.log.Warn()
	if kind == KindPersistence {
		outcome = "failed"
		ev = s.log.Error()
	}
	metrics.CatalogMutations.WithLabelValues(entity, operation, outcome).Inc()
	ev.Err(err).
		Str("entity", entity).
		Str("operation", operation).
		Str("kind", kind.String()).
		Msg("catalog write refused")
	return err
}

func (s *CatalogService) done(entity, operation, eventType string, id uint, extra map[string]interface{}) {
	metrics.CatalogMutations.WithLabelValues(entity, operation, "ok").Inc()
	s.publish(eventType, entity, id, extra)
}

func (s *CatalogService) publish(eventType, entity string, id uint, extra map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(realtime.Event{
		Type:     eventType,
		Entity:   entity,
		EntityID: id,
		Extra:    extra,
	})
}
