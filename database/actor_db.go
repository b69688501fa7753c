package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/camden-git/moviesysbackend/models"
)

var actorColumns = []string{"id", "first_name", "last_name", "date_of_birth"}

func scanActor(row sq.RowScanner, a *models.Actor) error {
	return row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.DateOfBirth)
}

// CreateActor inserts the actor and sets its generated ID.
func CreateActor(ctx context.Context, c Conn, actor *models.Actor) error {
	queryBuilder := c.SB.Insert("actors").
		Columns("first_name", "last_name", "date_of_birth").
		Values(actor.FirstName, actor.LastName, actor.DateOfBirth).
		Suffix("RETURNING id")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for CreateActor: %w", err)
	}
	var id int64
	err = c.Q.QueryRowContext(ctx, sqlStr, args...).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to execute CreateActor query for %s %s: %w", actor.FirstName, actor.LastName, err)
	}
	actor.ID = uint(id)
	return nil
}

func GetActorByID(ctx context.Context, c Conn, actorID uint) (models.Actor, error) {
	var a models.Actor
	queryBuilder := c.SB.Select(actorColumns...).
		From("actors").
		Where(sq.Eq{"id": actorID}).
		Limit(1)
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return models.Actor{}, fmt.Errorf("failed to build SQL for GetActorByID: %w", err)
	}
	err = scanActor(c.Q.QueryRowContext(ctx, sqlStr, args...), &a)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Actor{}, sql.ErrNoRows
		}
		return models.Actor{}, fmt.Errorf("failed to query or scan actor with ID %d: %w", actorID, err)
	}
	return a, nil
}

func ListActors(ctx context.Context, c Conn) ([]models.Actor, error) {
	queryBuilder := c.SB.Select(actorColumns...).
		From("actors").
		OrderBy("id ASC")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for ListActors: %w", err)
	}
	rows, err := c.Q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute ListActors query: %w", err)
	}
	defer rows.Close()
	actors := []models.Actor{}
	for rows.Next() {
		var a models.Actor
		if err := scanActor(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan actor row: %w", err)
		}
		actors = append(actors, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating actor rows: %w", err)
	}
	return actors, nil
}

// UpdateActor sets the given columns. sql.ErrNoRows means no actor has that ID.
func UpdateActor(ctx context.Context, c Conn, actorID uint, cols map[string]interface{}) error {
	queryBuilder := c.SB.Update("actors").
		SetMap(cols).
		Where(sq.Eq{"id": actorID})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for UpdateActor: %w", err)
	}
	result, err := c.Q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateActor for ID %d: %w", actorID, err)
	}
	return requireRows(result, "UpdateActor", actorID)
}

func DeleteActor(ctx context.Context, c Conn, actorID uint) error {
	queryBuilder := c.SB.Delete("actors").Where(sq.Eq{"id": actorID})
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL for DeleteActor: %w", err)
	}
	result, err := c.Q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteActor for ID %d: %w", actorID, err)
	}
	return requireRows(result, "DeleteActor", actorID)
}

func ActorExists(ctx context.Context, c Conn, actorID uint) (bool, error) {
	return exists(ctx, c, "actors", actorLookup(c, actorID, false))
}

// LockActor is ActorExists inside a Postgres transaction. The matched row stays
// locked FOR UPDATE until the transaction ends, so a movie insert that checked
// the actor and a delete of that actor run one after the other. Under READ
// COMMITTED the waiting side re-reads the row and sees the other's outcome.
func LockActor(ctx context.Context, c Conn, actorID uint) (bool, error) {
	return exists(ctx, c, "actors", actorLookup(c, actorID, true))
}

func actorLookup(c Conn, actorID uint, lock bool) sq.SelectBuilder {
	queryBuilder := existsQuery(c, "actors", sq.Eq{"id": actorID})
	if lock {
		queryBuilder = queryBuilder.Suffix("FOR UPDATE")
	}
	return queryBuilder
}

func existsQuery(c Conn, table string, where sq.Eq) sq.SelectBuilder {
	return c.SB.Select("1").From(table).Where(where).Limit(1)
}

func exists(ctx context.Context, c Conn, table string, queryBuilder sq.SelectBuilder) (bool, error) {
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build SQL for %s lookup: %w", table, err)
	}
	var one int
	err = c.Q.QueryRowContext(ctx, sqlStr, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", table, err)
	}
	return true, nil
}

func requireRows(result sql.Result, op string, id uint) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get RowsAffected for %s ID %d: %w", op, id, err)
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
