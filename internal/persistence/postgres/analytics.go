package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"example.com/gymtrack/internal/domain"
)

const trainingSetQuery = `SELECT l.exercise_id, e.name, COALESCE(e.muscle_group, ''), l.weight_kg, l.reps, l.logged_at
       FROM set_logs l
       JOIN workout_sessions s ON s.session_id = l.session_id
       JOIN exercises e ON e.exercise_id = l.exercise_id
      WHERE s.user_id=$1`

func scanTrainingSets(rows pgx.Rows) ([]domain.TrainingSet, error) {
	defer rows.Close()

	sets := make([]domain.TrainingSet, 0)
	for rows.Next() {
		var t domain.TrainingSet
		if err := rows.Scan(&t.ExerciseID, &t.ExerciseName, &t.MuscleGroup, &t.WeightKg, &t.Reps, &t.LoggedAt); err != nil {
			return nil, err
		}
		sets = append(sets, t)
	}
	return sets, rows.Err()
}

// TrainingSetsByUser loads the joined set history for analytics. A zero since
// loads everything.
func (r *Repository) TrainingSetsByUser(ctx context.Context, userID string, since time.Time) ([]domain.TrainingSet, error) {
	query := trainingSetQuery
	args := []any{userID}
	if !since.IsZero() {
		query += ` AND l.logged_at >= $2`
		args = append(args, since)
	}
	query += ` ORDER BY l.logged_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTrainingSets(rows)
}

// TrainingSetsByExercise restricts the history to one exercise.
func (r *Repository) TrainingSetsByExercise(ctx context.Context, userID, exerciseID string, since time.Time) ([]domain.TrainingSet, error) {
	query := trainingSetQuery + ` AND l.exercise_id=$2`
	args := []any{userID, exerciseID}
	if !since.IsZero() {
		query += ` AND l.logged_at >= $3`
		args = append(args, since)
	}
	query += ` ORDER BY l.logged_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTrainingSets(rows)
}

// FavoriteExercise returns the name of the most-logged exercise, or "" when
// the user has no sets.
func (r *Repository) FavoriteExercise(ctx context.Context, userID string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx,
		`SELECT e.name
           FROM set_logs l
           JOIN workout_sessions s ON s.session_id = l.session_id
           JOIN exercises e ON e.exercise_id = l.exercise_id
          WHERE s.user_id=$1
          GROUP BY e.name
          ORDER BY COUNT(*) DESC, e.name
          LIMIT 1`,
		userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}
