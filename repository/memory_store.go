package repository

import (
	"context"
	"sync"

	"github.com/camden-git/moviesysbackend/models"
)

type memoryState struct {
	actors      map[uint]models.Actor
	actorOrder  []uint
	nextActorID uint

	movies      map[uint]models.Movie
	movieOrder  []uint
	nextMovieID uint
}

// MemoryStore keeps both collections in process memory. One RWMutex guards
// both, so a transaction sees and mutates actors and movies atomically.
type MemoryStore struct {
	mu    *sync.RWMutex
	state *memoryState
	inTx  bool
}

// NewMemoryStore creates an empty store. Ids start at 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.RWMutex{},
		state: &memoryState{
			actors:      make(map[uint]models.Actor),
			movies:      make(map[uint]models.Movie),
			nextActorID: 1,
			nextMovieID: 1,
		},
	}
}

func (s *MemoryStore) Actors() ActorRepository { return &memoryActorRepository{store: s} }
func (s *MemoryStore) Movies() MovieRepository { return &memoryMovieRepository{store: s} }

// Transaction holds the write lock for the whole of fn. Writes fn makes are
// applied in place; a failing fn is reported but not rolled back, callers
// only mutate after their last check.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&MemoryStore{mu: s.mu, state: s.state, inTx: true})
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }
func (s *MemoryStore) Close() error                    { return nil }

func (s *MemoryStore) read() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *MemoryStore) write() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func removeID(order []uint, id uint) []uint {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

type memoryActorRepository struct {
	store *MemoryStore
}

func (r *memoryActorRepository) Create(ctx context.Context, actor *models.Actor) error {
	defer r.store.write()()
	st := r.store.state
	actor.ID = st.nextActorID
	st.nextActorID++
	st.actors[actor.ID] = *actor
	st.actorOrder = append(st.actorOrder, actor.ID)
	return nil
}

func (r *memoryActorRepository) ListAll(ctx context.Context) ([]models.Actor, error) {
	defer r.store.read()()
	st := r.store.state
	actors := make([]models.Actor, 0, len(st.actorOrder))
	for _, id := range st.actorOrder {
		actors = append(actors, st.actors[id])
	}
	return actors, nil
}

func (r *memoryActorRepository) GetByID(ctx context.Context, id uint) (*models.Actor, error) {
	defer r.store.read()()
	actor, ok := r.store.state.actors[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &actor, nil
}

func (r *memoryActorRepository) Update(ctx context.Context, id uint, patch models.ActorPatch) (*models.Actor, error) {
	defer r.store.write()()
	actor, ok := r.store.state.actors[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	patch.Apply(&actor)
	r.store.state.actors[id] = actor
	return &actor, nil
}

func (r *memoryActorRepository) Delete(ctx context.Context, id uint) error {
	defer r.store.write()()
	st := r.store.state
	if _, ok := st.actors[id]; !ok {
		return ErrRecordNotFound
	}
	delete(st.actors, id)
	st.actorOrder = removeID(st.actorOrder, id)
	return nil
}

func (r *memoryActorRepository) Exists(ctx context.Context, id uint) (bool, error) {
	defer r.store.read()()
	_, ok := r.store.state.actors[id]
	return ok, nil
}

type memoryMovieRepository struct {
	store *MemoryStore
}

func (r *memoryMovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	defer r.store.write()()
	st := r.store.state
	movie.ID = st.nextMovieID
	st.nextMovieID++
	st.movies[movie.ID] = *movie
	st.movieOrder = append(st.movieOrder, movie.ID)
	return nil
}

func (r *memoryMovieRepository) ListAll(ctx context.Context) ([]models.Movie, error) {
	defer r.store.read()()
	st := r.store.state
	movies := make([]models.Movie, 0, len(st.movieOrder))
	for _, id := range st.movieOrder {
		movies = append(movies, st.movies[id])
	}
	return movies, nil
}

func (r *memoryMovieRepository) GetByID(ctx context.Context, id uint) (*models.Movie, error) {
	defer r.store.read()()
	movie, ok := r.store.state.movies[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &movie, nil
}

func (r *memoryMovieRepository) Update(ctx context.Context, id uint, patch models.MoviePatch) (*models.Movie, error) {
	defer r.store.write()()
	movie, ok := r.store.state.movies[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	patch.Apply(&movie)
	r.store.state.movies[id] = movie
	return &movie, nil
}

func (r *memoryMovieRepository) Delete(ctx context.Context, id uint) error {
	defer r.store.write()()
	st := r.store.state
	if _, ok := st.movies[id]; !ok {
		return ErrRecordNotFound
	}
	delete(st.movies, id)
	st.movieOrder = removeID(st.movieOrder, id)
	return nil
}

func (r *memoryMovieRepository) ReferencesActor(ctx context.Context, actorID uint) (bool, error) {
	defer r.store.read()()
	for _, m := range r.store.state.movies {
		if m.ActorID == actorID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryMovieRepository) DeleteByActorID(ctx context.Context, actorID uint) (int64, error) {
	defer r.store.write()()
	st := r.store.state
	var removed int64
	for id, m := range st.movies {
		if m.ActorID == actorID {
			delete(st.movies, id)
			st.movieOrder = removeID(st.movieOrder, id)
			removed++
		}
	}
	return removed, nil
}
