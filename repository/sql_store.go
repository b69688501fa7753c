package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/camden-git/moviesysbackend/database"
	"github.com/camden-git/moviesysbackend/models"
)

// SQLStore is the Store backed by database/sql and the squirrel query layer.
type SQLStore struct {
	db     *sql.DB
	driver string
	conn   database.Conn
	inTx   bool
}

// NewSQLStore wraps a database opened by database.InitDB for driver.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{
		db:     db,
		driver: driver,
		conn:   database.Conn{Q: db, SB: database.Builder(driver)},
	}
}

// Actors returns the actor repository. Inside a Postgres transaction existence
// checks lock the actor row; SQLite already serializes writers.
func (s *SQLStore) Actors() ActorRepository {
	return &sqlActorRepository{conn: s.conn, lock: s.inTx && s.driver == database.DriverPostgres}
}

func (s *SQLStore) Movies() MovieRepository { return &sqlMovieRepository{conn: s.conn} }

func (s *SQLStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	txStore := &SQLStore{db: s.db, driver: s.driver, conn: database.Conn{Q: tx, SB: s.conn.SB}, inTx: true}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLStore) Close() error                    { return s.db.Close() }

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	return err
}

type sqlActorRepository struct {
	conn database.Conn
	lock bool
}

func (r *sqlActorRepository) Create(ctx context.Context, actor *models.Actor) error {
	return database.CreateActor(ctx, r.conn, actor)
}

func (r *sqlActorRepository) ListAll(ctx context.Context) ([]models.Actor, error) {
	return database.ListActors(ctx, r.conn)
}

func (r *sqlActorRepository) GetByID(ctx context.Context, id uint) (*models.Actor, error) {
	actor, err := database.GetActorByID(ctx, r.conn, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &actor, nil
}

func (r *sqlActorRepository) Update(ctx context.Context, id uint, patch models.ActorPatch) (*models.Actor, error) {
	if cols := patch.Columns(); len(cols) > 0 {
		if err := database.UpdateActor(ctx, r.conn, id, cols); err != nil {
			return nil, notFound(err)
		}
	}
	return r.GetByID(ctx, id)
}

func (r *sqlActorRepository) Delete(ctx context.Context, id uint) error {
	return notFound(database.DeleteActor(ctx, r.conn, id))
}

func (r *sqlActorRepository) Exists(ctx context.Context, id uint) (bool, error) {
	if r.lock {
		return database.LockActor(ctx, r.conn, id)
	}
	return database.ActorExists(ctx, r.conn, id)
}

type sqlMovieRepository struct {
	conn database.Conn
}

func (r *sqlMovieRepository) Create(ctx context.Context, movie *models.Movie) error {
	return database.CreateMovie(ctx, r.conn, movie)
}

func (r *sqlMovieRepository) ListAll(ctx context.Context) ([]models.Movie, error) {
	return database.ListMovies(ctx, r.conn)
}

func (r *sqlMovieRepository) GetByID(ctx context.Context, id uint) (*models.Movie, error) {
	movie, err := database.GetMovieByID(ctx, r.conn, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &movie, nil
}

func (r *sqlMovieRepository) Update(ctx context.Context, id uint, patch models.MoviePatch) (*models.Movie, error) {
	if cols := patch.Columns(); len(cols) > 0 {
		if err := database.UpdateMovie(ctx, r.conn, id, cols); err != nil {
			return nil, notFound(err)
		}
	}
	return r.GetByID(ctx, id)
}

func (r *sqlMovieRepository) Delete(ctx context.Context, id uint) error {
	return notFound(database.DeleteMovie(ctx, r.conn, id))
}

func (r *sqlMovieRepository) ReferencesActor(ctx context.Context, actorID uint) (bool, error) {
	return database.MovieReferencesActor(ctx, r.conn, actorID)
}

func (r *sqlMovieRepository) DeleteByActorID(ctx context.Context, actorID uint) (int64, error) {
	return database.DeleteMoviesByActorID(ctx, r.conn, actorID)
}
