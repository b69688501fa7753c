package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/moviesysbackend/models"
	"github.com/camden-git/moviesysbackend/realtime"
	"github.com/camden-git/moviesysbackend/repository"
	"github.com/camden-git/moviesysbackend/validation"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Broadcast(e realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newService(t *testing.T, opts ...Option) (*CatalogService, *recorder) {
	t.Helper()
	rec := &recorder{}
	rules := validation.New(func() time.Time { return fixedNow })
	opts = append([]Option{WithBroadcaster(rec)}, opts...)
	return NewCatalogService(repository.NewMemoryStore(), rules, opts...), rec
}

func str(s string) *string { return &s }
func id(v uint) *uint      { return &v }
func date(s string) *models.Date {
	d := models.MustParseDate(s)
	return &d
}

func actorInput(first, last, dob string) validation.ActorInput {
	return validation.ActorInput{FirstName: str(first), LastName: str(last), DateOfBirth: date(dob)}
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	var serr *Error
	require.True(t, errors.As(err, &serr), "expected service error, got %T", err)
	assert.Equal(t, kind, serr.Kind, "message: %s", serr.Message)
}

func TestCreateActorAssignsSequentialIDs(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	a, err := svc.CreateActor(ctx, actorInput("Jane", "Doe", "1990-01-01"))
	require.NoError(t, err)
	b, err := svc.CreateActor(ctx, actorInput("John", "Roe", "1985-05-05"))
	require.NoError(t, err)

	assert.Equal(t, uint(1), a.ID)
	assert.Equal(t, uint(2), b.ID)
	assert.Equal(t, []string{realtime.ActorCreated, realtime.ActorCreated}, rec.types())
}

func TestCreateActorValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateActor(ctx, validation.ActorInput{FirstName: str("Jane")})
	requireKind(t, err, KindValidation)
	assert.Equal(t, "firstName, lastName and dateOfBirth are required", err.Error())

	_, err = svc.CreateActor(ctx, actorInput("Jane", "Doe", "2999-01-01"))
	requireKind(t, err, KindValidation)
	assert.Equal(t, "dateOfBirth cannot be in the future", err.Error())

	// today is allowed
	_, err = svc.CreateActor(ctx, actorInput("Jane", "Doe", "2024-06-15"))
	require.NoError(t, err)

	_, err = svc.CreateActor(ctx, actorInput("Jane", "Doe", "2024-06-16"))
	requireKind(t, err, KindValidation)

	actors, err := svc.ListActors(ctx)
	require.NoError(t, err)
	assert.Len(t, actors, 1)
}

func TestUpdateActorKeepsUnsuppliedFields(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	created, err := svc.CreateActor(ctx, actorInput("Jane", "Doe", "1990-01-01"))
	require.NoError(t, err)

	updated, err := svc.UpdateActor(ctx, created.ID, models.ActorPatch{LastName: str("Smith")})
	require.NoError(t, err)
	assert.Equal(t, "Jane", updated.FirstName)
	assert.Equal(t, "Smith", updated.LastName)
	assert.Equal(t, "1990-01-01", updated.DateOfBirth.String())
	assert.Contains(t, rec.types(), realtime.ActorUpdated)

	got, err := svc.GetActor(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *got)
}

func TestUpdateActorErrors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreateActor(ctx, actorInput("Jane", "Doe", "1990-01-01"))
	require.NoError(t, err)

	_, err = svc.UpdateActor(ctx, created.ID, models.ActorPatch{DateOfBirth: date("2999-01-01")})
	requireKind(t, err, KindValidation)

	_, err = svc.UpdateActor(ctx, created.ID, models.ActorPatch{FirstName: str("")})
	requireKind(t, err, KindValidation)
	assert.Equal(t, "firstName cannot be empty", err.Error())

	_, err = svc.UpdateActor(ctx, 42, models.ActorPatch{FirstName: str("X")})
	requireKind(t, err, KindNotFound)

	// validation runs before the lookup
	_, err = svc.UpdateActor(ctx, 42, models.ActorPatch{DateOfBirth: date("2999-01-01")})
	requireKind(t, err, KindValidation)

	got, err := svc.GetActor(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.FirstName)
	assert.Equal(t, "1990-01-01", got.DateOfBirth.String())
}

func TestGetAndDeleteMissingActor(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.GetActor(ctx, 9)
	requireKind(t, err, KindNotFound)
	assert.Same(t, ErrActorNotFound, err)

	requireKind(t, svc.DeleteActor(ctx, 9), KindNotFound)
}

func TestCreateMovieRequiresExistingActor(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateMovie(ctx, validation.MovieInput{Title: str("X"), CreationDate: date("2020-01-01"), ActorID: id(999)})
	requireKind(t, err, KindNotFound)
	assert.Equal(t, "Actor not found", err.Error())

	movies, err := svc.ListMovies(ctx)
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestCreateMovieValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateMovie(ctx, validation.MovieInput{Title: str("X"), CreationDate: date("2020-01-01")})
	requireKind(t, err, KindValidation)
	assert.Equal(t, "title, creationDate and actorId are required", err.Error())

	_, err = svc.CreateMovie(ctx, validation.MovieInput{Title: str("X"), CreationDate: date("2020-01-01"), ActorID: id(0)})
	requireKind(t, err, KindValidation)

	// the date rule fires before the actor lookup
	_, err = svc.CreateMovie(ctx, validation.MovieInput{Title: str("X"), CreationDate: date("2999-01-01"), ActorID: id(999)})
	requireKind(t, err, KindValidation)
	assert.Equal(t, "creationDate cannot be in the future", err.Error())
}

func TestUpdateMovie(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	jane, err := svc.CreateActor(ctx, actorInput("Jane", "Doe", "1990-01-01"))
	require.NoError(t, err)
	john, err := svc.CreateActor(ctx, actorInput("John", "Roe", "1980-01-01"))
	require.NoError(t, err)
	movie, err := svc.CreateMovie(ctx, validation.MovieInput{Title: str("X"), CreationDate: date("2020-01-01"), ActorID: id(jane.ID)})
	require.NoError(t, err)

	updated, err := svc.UpdateMovie(ctx, movie.ID, models.MoviePatch{ActorID: id(john.ID)})
	require.NoError(t, err)
	assert.Equal(t, john.ID, updated.ActorID)
	assert.Equal(t, "X", updated.Title)

	_, err = svc.UpdateMovie(ctx, movie.ID, models.MoviePatch{ActorID: id(999)})
	requireKind(t, err, KindNotFound)
	assert.Same(t, ErrActorNotFound, err)

	_, err = svc.UpdateMovie(ctx, 77, models.MoviePatch{Title: str("Y")})
	requireKind(t, err, KindNotFound)
	assert.Same(t, ErrMovieNotFound, err)

	_, err = svc.UpdateMovie(ctx, movie.ID, models.MoviePatch{CreationDate: date("2999-01-01")})
	requireKind(t, err, KindValidation)

	got, err := svc.GetMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, john.ID, got.ActorID)
	assert.Equal(t, "2020-01-01", got.CreationDate.String())
}

func TestDeleteMovie(t *testing.T) {
	svc, rec := newService(t)
	ctx := context.Background()

	jane, err := svc.CreateActor(ctx, actorInput("Jane", "Doe", "1990-01-01"))
	require.NoError(t, err)
	movie, err := svc.CreateMovie(ctx, validation.MovieInput{Title: str("X"), CreationDate: date("2020-01-01"), ActorID: id(jane.ID)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMovie(ctx, movie.ID))
	_, err = svc.GetMovie(ctx, movie.ID)
	requireKind(t, err, KindNotFound)
	requireKind(t, svc.DeleteMovie(ctx, movie.ID), KindNotFound)
	assert.Contains(t, rec.types(), realtime.MovieDeleted)
}

func seedActorWithMovies(t *testing.T, svc *CatalogService, n int) *models.Actor {
	t.Helper()
	ctx := context.Background()
	actor, err := svc.CreateActor(ctx, actorInput("Jane", "Doe", "1990-01-01"))
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		_, err := svc.CreateMovie(ctx, validation.MovieInput{Title: str("X"), CreationDate: date("2020-01-01"), ActorID: id(actor.ID)})
		require.NoError(t, err)
	}
	return actor
}

func TestDeleteActorDanglePolicy(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	actor := seedActorWithMovies(t, svc, 2)

	require.NoError(t, svc.DeleteActor(ctx, actor.ID))
	_, err := svc.GetActor(ctx, actor.ID)
	requireKind(t, err, KindNotFound)

	movies, err := svc.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 2)
	assert.Equal(t, actor.ID, movies[0].ActorID)
}

func TestDeleteActorRestrictPolicy(t *testing.T) {
	svc, _ := newService(t, WithDeletePolicy(PolicyRestrict))
	ctx := context.Background()
	actor := seedActorWithMovies(t, svc, 1)

	err := svc.DeleteActor(ctx, actor.ID)
	requireKind(t, err, KindConflict)

	_, err = svc.GetActor(ctx, actor.ID)
	require.NoError(t, err)

	lonely := seedActorWithMovies(t, svc, 0)
	require.NoError(t, svc.DeleteActor(ctx, lonely.ID))
}

func TestDeleteActorCascadePolicy(t *testing.T) {
	svc, rec := newService(t, WithDeletePolicy(PolicyCascade))
	ctx := context.Background()
	actor := seedActorWithMovies(t, svc, 3)
	other := seedActorWithMovies(t, svc, 1)

	require.NoError(t, svc.DeleteActor(ctx, actor.ID))

	movies, err := svc.ListMovies(ctx)
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, other.ID, movies[0].ActorID)
	assert.Contains(t, rec.types(), realtime.MoviesCascade)
}

func TestConcurrentCreatesGetUniqueIDs(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	const n = 50
	ids := make(chan uint, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := svc.CreateActor(ctx, actorInput("A", "B", "2000-01-01"))
			if err == nil {
				ids <- a.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint]bool{}
	for v := range ids {
		assert.False(t, seen[v], "duplicate id %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

type failingStore struct {
	repository.Store
}

func (failingStore) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	return errors.New("disk on fire")
}

func TestPersistenceFailuresAreClassified(t *testing.T) {
	rules := validation.New(func() time.Time { return fixedNow })
	svc := NewCatalogService(failingStore{Store: repository.NewMemoryStore()}, rules)

	_, err := svc.CreateActor(context.Background(), actorInput("Jane", "Doe", "1990-01-01"))
	requireKind(t, err, KindPersistence)
	assert.Contains(t, err.Error(), "disk on fire")
}
