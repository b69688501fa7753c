package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/camden-git/moviesysbackend/models"
)

var movieColumns = []string{"id", "title", "creation_date", "actor_id"}

func scanMovie(row sq.RowScanner, m *models.Movie) error {
	return row.Scan(&m.ID, &m.Title, &m.CreationDate, &m.ActorID)
}

// CreateMovie inserts the movie and sets its generated ID.
func CreateMovie(ctx context.Context, c Conn, movie *models.Movie) error {
	queryBuilder := c.SB.Insert("movies").
		Columns("title", "creation_date", "actor_id").
		Values(movie.Title, movie.CreationDate, movie.ActorID).
		Suffix("RETURNING id")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for CreateMovie: %w", err)
	}
	var id int64
	err = c.Q.QueryRowContext(ctx, sqlStr, args...).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to execute CreateMovie query for %s: %w", movie.Title, err)
	}
	movie.ID = uint(id)
	return nil
}

func GetMovieByID(ctx context.Context, c Conn, movieID uint) (models.Movie, error) {
	var m models.Movie
	queryBuilder := c.SB.Select(movieColumns...).
		From("movies").
		Where(sq.Eq{"id": movieID}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.Movie{}, fmt.Errorf("failed to build SQL for GetMovieByID: %w", err)
	}
	err = scanMovie(c.Q.QueryRowContext(ctx, sqlStr, args...), &m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Movie{}, sql.ErrNoRows
		}
		return models.Movie{}, fmt.Errorf("failed to query or scan movie with ID %d: %w", movieID, err)
	}
	return m, nil
}

func ListMovies(ctx context.Context, c Conn) ([]models.Movie, error) {
	queryBuilder := c.SB.Select(movieColumns...).
		From("movies").
		OrderBy("id ASC")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListMovies: %w", err)
	}
	rows, err := c.Q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListMovies query: %w", err)
	}
	defer rows.Close()
	movies := []models.Movie{}
	for rows.Next() {
		var m models.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan movie row: %w", err)
		}
		movies = append(movies, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movie rows: %w", err)
	}
	return movies, nil
}

// UpdateMovie sets the given columns. sql.ErrNoRows means no movie has that ID.
func UpdateMovie(ctx context.Context, c Conn, movieID uint, cols map[string]interface{}) error {
	queryBuilder := c.SB.Update("movies").
		SetMap(cols).
		Where(sq.Eq{"id": movieID})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for UpdateMovie: %w", err)
	}
	result, err := c.Q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateMovie for ID %d: %w", movieID, err)
	}
	return requireRows(result, "UpdateMovie", movieID)
}

func DeleteMovie(ctx context.Context, c Conn, movieID uint) error {
	queryBuilder := c.SB.Delete("movies").Where(sq.Eq{"id": movieID})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteMovie: %w", err)
	}
	result, err := c.Q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteMovie for ID %d: %w", movieID, err)
	}
	return requireRows(result, "DeleteMovie", movieID)
}

func MovieReferencesActor(ctx context.Context, c Conn, actorID uint) (bool, error) {
	return exists(ctx, c, "movies", existsQuery(c, "movies", sq.Eq{"actor_id": actorID}))
}

// DeleteMoviesByActorID removes every movie referencing the actor and returns how many went.
func DeleteMoviesByActorID(ctx context.Context, c Conn, actorID uint) (int64, error) {
	queryBuilder := c.SB.Delete("movies").Where(sq.Eq{"actor_id": actorID})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build SQL for DeleteMoviesByActorID: %w", err)
	}
	result, err := c.Q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to execute DeleteMoviesByActorID for actor ID %d: %w", actorID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not get RowsAffected for DeleteMoviesByActorID: %w", err)
	}
	return n, nil
}
