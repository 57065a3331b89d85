// Package postgres provides pgx-backed persistence for the progression
// engine.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/gymtrack/internal/domain"
)

// querier is the statement surface shared by *pgxpool.Pool and pgx.Tx, so
// the same query helpers serve both transactional and plain reads.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements domain.Repository on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// txRetryAttempts bounds how often a serialization conflict on the shared
// progression row is retried before surfacing.
const txRetryAttempts = 3

// InTx runs fn in a single transaction, retrying transient serialization
// conflicts so two simultaneous completions for one user never lose an XP
// increment.
func (r *Repository) InTx(ctx context.Context, fn func(domain.Tx) error) error {
	var err error
	for attempt := 0; attempt < txRetryAttempts; attempt++ {
		err = r.runTx(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
	}
	return err
}

func (r *Repository) runTx(ctx context.Context, fn func(domain.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&txUnit{tx: tx}); err != nil {
		return err
	}
	err = tx.Commit(ctx)
	return err
}

// isRetryable reports whether the transaction failed on a conflict Postgres
// asks clients to retry (serialization failure or deadlock).
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// txUnit implements domain.Tx over one open pgx transaction.
type txUnit struct {
	tx pgx.Tx
}

const sessionColumns = `session_id, user_id, routine_id, started_at, ended_at`

func scanSession(row pgx.Row) (*domain.WorkoutSession, error) {
	var s domain.WorkoutSession
	if err := row.Scan(&s.ID, &s.UserID, &s.RoutineID, &s.StartedAt, &s.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// SessionForUpdate loads a session under a row lock, serialising concurrent
// completion attempts for the same session.
func (t *txUnit) SessionForUpdate(ctx context.Context, sessionID, userID string) (*domain.WorkoutSession, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions
          WHERE session_id=$1 AND user_id=$2 FOR UPDATE`,
		sessionID, userID)
	return scanSession(row)
}

// SealSession sets the end time; callers verify it was unset first.
func (t *txUnit) SealSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE workout_sessions SET ended_at=$2 WHERE session_id=$1`,
		sessionID, endedAt)
	return err
}

func (t *txUnit) SetLogsBySession(ctx context.Context, sessionID string) ([]domain.SetLog, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT set_id, session_id, exercise_id, set_number, weight_kg, reps, rpe, logged_at
           FROM set_logs WHERE session_id=$1 ORDER BY logged_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.SetLog, 0)
	for rows.Next() {
		var l domain.SetLog
		if err := rows.Scan(&l.ID, &l.SessionID, &l.ExerciseID, &l.SetNumber, &l.WeightKg, &l.Reps, &l.RPE, &l.LoggedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

const userColumns = `user_id, username, xp, level, coins, current_streak, longest_streak,
        last_workout_date, avatar_icon, username_color, is_verified, title, created_at`

func scanUser(row pgx.Row) (*domain.UserProgression, error) {
	var u domain.UserProgression
	if err := row.Scan(&u.ID, &u.Username, &u.XP, &u.Level, &u.Coins, &u.CurrentStreak, &u.LongestStreak,
		&u.LastWorkoutDate, &u.AvatarIcon, &u.UsernameColor, &u.Verified, &u.Title, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// UserForUpdate locks the progression row; concurrent completions for the
// same user queue here instead of losing updates.
func (t *txUnit) UserForUpdate(ctx context.Context, userID string) (*domain.UserProgression, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id=$1 FOR UPDATE`, userID)
	return scanUser(row)
}

func (t *txUnit) SaveProgression(ctx context.Context, user *domain.UserProgression) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE users
            SET xp=$2, level=$3, coins=$4, current_streak=$5, longest_streak=$6,
                last_workout_date=$7, avatar_icon=$8, username_color=$9, is_verified=$10, title=$11
          WHERE user_id=$1`,
		user.ID, user.XP, user.Level, user.Coins, user.CurrentStreak, user.LongestStreak,
		user.LastWorkoutDate, user.AvatarIcon, user.UsernameColor, user.Verified, user.Title)
	return err
}

func (t *txUnit) StatsByUser(ctx context.Context, userID string) (domain.UserStats, error) {
	return statsByUser(ctx, t.tx, userID)
}

func (t *txUnit) LockedAchievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT achievement_id, name, description, icon, category, requirement, xp_reward, coins_reward
           FROM achievements a
          WHERE NOT EXISTS (
                SELECT 1 FROM user_achievements ua
                 WHERE ua.achievement_id = a.achievement_id AND ua.user_id = $1)
          ORDER BY category, requirement`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	achievements := make([]domain.Achievement, 0)
	for rows.Next() {
		var a domain.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.Category, &a.Requirement, &a.XPReward, &a.CoinsReward); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// InsertUnlock records an unlock; the primary key on (user_id,
// achievement_id) makes re-evaluation a no-op.
func (t *txUnit) InsertUnlock(ctx context.Context, userID, achievementID string, unlockedAt time.Time) (bool, error) {
	tag, err := t.tx.Exec(ctx,
		`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
         VALUES ($1,$2,$3) ON CONFLICT DO NOTHING`,
		userID, achievementID, unlockedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (t *txUnit) ShopItem(ctx context.Context, itemID string) (*domain.ShopItem, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT item_id, name, description, item_type, value, price, required_level, is_active
           FROM shop_items WHERE item_id=$1`,
		itemID)
	var item domain.ShopItem
	if err := row.Scan(&item.ID, &item.Name, &item.Description, &item.ItemType, &item.Value, &item.Price, &item.RequiredLevel, &item.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// EnsureUser provisions the progression row on first contact. Defaults for
// xp/level/coins/streaks come from the schema, so fields are never null.
func (r *Repository) EnsureUser(ctx context.Context, userID, username string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (user_id, username) VALUES ($1,$2)
         ON CONFLICT (user_id) DO NOTHING`,
		userID, username)
	return err
}

func (r *Repository) User(ctx context.Context, userID string) (*domain.UserProgression, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id=$1`, userID)
	return scanUser(row)
}

func (r *Repository) UnlockCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_achievements WHERE user_id=$1`, userID).Scan(&count)
	return count, err
}

func (r *Repository) StatsByUser(ctx context.Context, userID string) (domain.UserStats, error) {
	return statsByUser(ctx, r.pool, userID)
}

func statsByUser(ctx context.Context, q querier, userID string) (domain.UserStats, error) {
	var stats domain.UserStats
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sessions WHERE user_id=$1 AND ended_at IS NOT NULL`,
		userID).Scan(&stats.TotalSessions); err != nil {
		return stats, err
	}
	if err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(l.weight_kg * l.reps), 0)
           FROM set_logs l
           JOIN workout_sessions s ON s.session_id = l.session_id
          WHERE s.user_id=$1`,
		userID).Scan(&stats.TotalVolumeKg); err != nil {
		return stats, err
	}
	return stats, nil
}

func (r *Repository) CreateSession(ctx context.Context, session domain.WorkoutSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO workout_sessions (session_id, user_id, routine_id, started_at, ended_at)
         VALUES ($1,$2,$3,$4,$5)`,
		session.ID, session.UserID, session.RoutineID, session.StartedAt, session.EndedAt)
	return err
}

func (r *Repository) Session(ctx context.Context, sessionID, userID string) (*domain.WorkoutSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE session_id=$1 AND user_id=$2`,
		sessionID, userID)
	return scanSession(row)
}

// SessionsByUser returns sessions newest first with keyset pagination.
func (r *Repository) SessionsByUser(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutSession, *domain.Cursor, error) {
	args := []any{userID, limit}
	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE user_id=$1`

	if cursor != nil {
		query += ` AND (started_at, session_id) < ($3, $4)`
		args = append(args, cursor.StartedAt, cursor.ID)
	}

	query += ` ORDER BY started_at DESC, session_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	sessions := make([]domain.WorkoutSession, 0, limit)
	for rows.Next() {
		var s domain.WorkoutSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.RoutineID, &s.StartedAt, &s.EndedAt); err != nil {
			return nil, nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(sessions) == limit {
		last := sessions[len(sessions)-1]
		next = &domain.Cursor{StartedAt: last.StartedAt, ID: last.ID}
	}
	return sessions, next, nil
}

func (r *Repository) SessionCountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_sessions WHERE user_id=$1 AND started_at >= $2`,
		userID, since).Scan(&count)
	return count, err
}

func (r *Repository) SessionStartsByUser(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT started_at FROM workout_sessions WHERE user_id=$1 AND started_at >= $2`,
		userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	starts := make([]time.Time, 0)
	for rows.Next() {
		var started time.Time
		if err := rows.Scan(&started); err != nil {
			return nil, err
		}
		starts = append(starts, started)
	}
	return starts, rows.Err()
}

func (r *Repository) ExerciseExists(ctx context.Context, exerciseID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exercises WHERE exercise_id=$1)`, exerciseID).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateSetLog(ctx context.Context, log domain.SetLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO set_logs (set_id, session_id, exercise_id, set_number, weight_kg, reps, rpe, logged_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		log.ID, log.SessionID, log.ExerciseID, log.SetNumber, log.WeightKg, log.Reps, log.RPE, log.LoggedAt)
	return err
}

func (r *Repository) SetLogDetailsBySession(ctx context.Context, sessionID string) ([]domain.SetLogDetail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT l.set_id, l.session_id, l.exercise_id, l.set_number, l.weight_kg, l.reps, l.rpe, l.logged_at,
                e.name, COALESCE(e.muscle_group, '')
           FROM set_logs l
           JOIN exercises e ON e.exercise_id = l.exercise_id
          WHERE l.session_id=$1
          ORDER BY l.logged_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]domain.SetLogDetail, 0)
	for rows.Next() {
		var d domain.SetLogDetail
		if err := rows.Scan(&d.ID, &d.SessionID, &d.ExerciseID, &d.SetNumber, &d.WeightKg, &d.Reps, &d.RPE, &d.LoggedAt,
			&d.ExerciseName, &d.MuscleGroup); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *Repository) AchievementStatuses(ctx context.Context, userID string) ([]domain.AchievementStatus, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.achievement_id, a.name, a.description, a.icon, a.category, a.requirement,
                a.xp_reward, a.coins_reward, ua.unlocked_at
           FROM achievements a
           LEFT JOIN user_achievements ua
             ON ua.achievement_id = a.achievement_id AND ua.user_id = $1
          ORDER BY a.category, a.requirement`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := make([]domain.AchievementStatus, 0)
	for rows.Next() {
		var s domain.AchievementStatus
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Icon, &s.Category, &s.Requirement,
			&s.XPReward, &s.CoinsReward, &s.UnlockedAt); err != nil {
			return nil, err
		}
		s.Unlocked = s.UnlockedAt != nil
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func (r *Repository) ActiveShopItems(ctx context.Context) ([]domain.ShopItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT item_id, name, description, item_type, value, price, required_level, is_active
           FROM shop_items WHERE is_active ORDER BY required_level, price`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.ShopItem, 0)
	for rows.Next() {
		var item domain.ShopItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.ItemType, &item.Value,
			&item.Price, &item.RequiredLevel, &item.Active); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
