package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/rutinas/internal/routine"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RoutineSummary is a list entry of the routine library.
type RoutineSummary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ExerciseCount int       `json:"exercise_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SaveRoutine stores r and returns it with its id set. A routine without an
// id gets a new one; a blank name is stored as routine.DefaultName. The
// exercise rows of an existing routine are replaced in one transaction.
func (db *DB) SaveRoutine(ctx context.Context, r routine.Routine) (routine.Routine, error) {
	id := uuid.New()
	if r.ID != nil {
		parsed, err := uuid.Parse(*r.ID)
		if err != nil {
			return r, fmt.Errorf("invalid routine id %q: %w", *r.ID, err)
		}
		id = parsed
	}
	r.Name = routine.NormalizeName(r.Name)

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return r, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`INSERT INTO routines (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()`,
		id, r.Name)
	if err != nil {
		return r, fmt.Errorf("upserting routine: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM routine_exercises WHERE routine_id = $1`, id); err != nil {
		return r, fmt.Errorf("clearing exercises: %w", err)
	}

	if err := insertExercises(ctx, tx, id, flatten(r)); err != nil {
		return r, err
	}

	if err := tx.Commit(ctx); err != nil {
		return r, fmt.Errorf("committing routine: %w", err)
	}

	s := id.String()
	r.ID = &s
	return r, nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, routineID uuid.UUID, rows []exerciseRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO routine_exercises (routine_id, section, position, name,
		weight_amount, weight_unit, rest_seconds, repetitions) VALUES `
	args := make([]any, 0, len(rows)*8)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 8
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args, routineID, r.Section, r.Position, r.Name,
			r.WeightAmount, r.WeightUnit, r.RestSeconds, r.Repetitions)
	}

	query += strings.Join(valueStrings, ",")

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting exercises: %w", err)
	}
	return nil
}

// GetRoutine loads a saved routine with all its exercises.
func (db *DB) GetRoutine(ctx context.Context, id uuid.UUID) (routine.Routine, error) {
	var r routine.Routine
	err := db.Pool.QueryRow(ctx, `SELECT name FROM routines WHERE id = $1`, id).Scan(&r.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("querying routine: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT section, position, name, weight_amount, weight_unit, rest_seconds, repetitions
		 FROM routine_exercises
		 WHERE routine_id = $1
		 ORDER BY section, position`,
		id)
	if err != nil {
		return r, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var exRows []exerciseRow
	for rows.Next() {
		var e exerciseRow
		if err := rows.Scan(&e.Section, &e.Position, &e.Name,
			&e.WeightAmount, &e.WeightUnit, &e.RestSeconds, &e.Repetitions); err != nil {
			return r, fmt.Errorf("scanning exercise: %w", err)
		}
		exRows = append(exRows, e)
	}
	if err := rows.Err(); err != nil {
		return r, fmt.Errorf("reading exercises: %w", err)
	}

	r.Exercises, err = assemble(exRows)
	if err != nil {
		return r, err
	}
	s := id.String()
	r.ID = &s
	return r, nil
}

// ListRoutines returns the most recently updated routines first.
func (db *DB) ListRoutines(ctx context.Context, limit int) ([]RoutineSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT r.id, r.name, COUNT(e.routine_id), r.updated_at
		 FROM routines r
		 LEFT JOIN routine_exercises e ON e.routine_id = r.id
		 GROUP BY r.id, r.name, r.updated_at
		 ORDER BY r.updated_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing routines: %w", err)
	}
	defer rows.Close()

	result := []RoutineSummary{}
	for rows.Next() {
		var s RoutineSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.ExerciseCount, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning routine summary: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// DeleteRoutine removes a saved routine and its exercises.
func (db *DB) DeleteRoutine(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM routines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting routine: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
