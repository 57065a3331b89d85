package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/gymtrack/internal/observability"
)

var (
	// ErrUserNotFound is returned when the caller's user record is absent.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound is returned when a session is absent or owned by
	// somebody else.
	ErrSessionNotFound = errors.New("session not found")
	// ErrExerciseNotFound is returned when a set references an unknown
	// exercise.
	ErrExerciseNotFound = errors.New("exercise not found")
	// ErrShopItemNotFound is returned for absent or inactive shop items.
	ErrShopItemNotFound = errors.New("shop item not found")
	// ErrSessionFinished rejects finishing, or logging into, a session that
	// already has an end time. Rewards are never applied twice.
	ErrSessionFinished = errors.New("session already finished")
	// ErrInsufficientCoins rejects purchases the balance cannot cover.
	ErrInsufficientCoins = errors.New("not enough coins")
	// ErrLevelTooLow rejects purchases gated behind a higher level.
	ErrLevelTooLow = errors.New("level requirement not met")
	// ErrInvalidSetLog wraps set-log validation failures.
	ErrInvalidSetLog = errors.New("invalid set log")
)

// Tx is the unit of work engine operations mutate state through. Every
// method runs against the same database transaction; the ForUpdate methods
// take row locks so concurrent completions for one session or one user
// serialise instead of double-awarding.
type Tx interface {
	SessionForUpdate(ctx context.Context, sessionID, userID string) (*WorkoutSession, error)
	SealSession(ctx context.Context, sessionID string, endedAt time.Time) error
	SetLogsBySession(ctx context.Context, sessionID string) ([]SetLog, error)
	UserForUpdate(ctx context.Context, userID string) (*UserProgression, error)
	SaveProgression(ctx context.Context, user *UserProgression) error
	StatsByUser(ctx context.Context, userID string) (UserStats, error)
	LockedAchievements(ctx context.Context, userID string) ([]Achievement, error)
	// InsertUnlock records an achievement unlock and reports false when the
	// (user, achievement) pair already existed.
	InsertUnlock(ctx context.Context, userID, achievementID string, unlockedAt time.Time) (bool, error)
	ShopItem(ctx context.Context, itemID string) (*ShopItem, error)
	// RecordEvent appends a domain event to the outbox within the
	// transaction.
	RecordEvent(ctx context.Context, eventType, aggregateID string, payload any) error
}

// Repository is the persistence surface the service depends on. InTx runs fn
// inside a single transaction and retries transient serialization conflicts;
// the remaining methods are single-statement reads and writes.
type Repository interface {
	InTx(ctx context.Context, fn func(Tx) error) error

	EnsureUser(ctx context.Context, userID, username string) error
	User(ctx context.Context, userID string) (*UserProgression, error)
	UnlockCount(ctx context.Context, userID string) (int, error)
	StatsByUser(ctx context.Context, userID string) (UserStats, error)

	CreateSession(ctx context.Context, session WorkoutSession) error
	Session(ctx context.Context, sessionID, userID string) (*WorkoutSession, error)
	SessionsByUser(ctx context.Context, userID string, cursor *Cursor, limit int) ([]WorkoutSession, *Cursor, error)
	SessionCountSince(ctx context.Context, userID string, since time.Time) (int, error)
	SessionStartsByUser(ctx context.Context, userID string, since time.Time) ([]time.Time, error)

	ExerciseExists(ctx context.Context, exerciseID string) (bool, error)
	CreateSetLog(ctx context.Context, log SetLog) error
	SetLogDetailsBySession(ctx context.Context, sessionID string) ([]SetLogDetail, error)

	// TrainingSets* load joined set history; a zero since means all history.
	TrainingSetsByUser(ctx context.Context, userID string, since time.Time) ([]TrainingSet, error)
	TrainingSetsByExercise(ctx context.Context, userID, exerciseID string, since time.Time) ([]TrainingSet, error)
	FavoriteExercise(ctx context.Context, userID string) (string, error)

	AchievementStatuses(ctx context.Context, userID string) ([]AchievementStatus, error)
	ActiveShopItems(ctx context.Context) ([]ShopItem, error)
}

// SetLogDetail is a set log joined with its exercise, for session detail
// views.
type SetLogDetail struct {
	SetLog
	ExerciseName string
	MuscleGroup  string
}

// Service orchestrates progression workflows.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// StartSessionInput captures the payload for starting a session.
type StartSessionInput struct {
	UserID    string
	Username  string
	RoutineID *string
}

// StartSession opens a new in-progress session, provisioning the progression
// row on first contact.
func (s *Service) StartSession(ctx context.Context, input StartSessionInput) (*WorkoutSession, error) {
	if err := s.repo.EnsureUser(ctx, input.UserID, input.Username); err != nil {
		return nil, err
	}

	session := WorkoutSession{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		RoutineID: input.RoutineID,
		StartedAt: s.now(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Sessions lists the caller's sessions, newest first, with cursor
// pagination.
func (s *Service) Sessions(ctx context.Context, userID string, cursor *Cursor, limit int) ([]WorkoutSession, *Cursor, error) {
	return s.repo.SessionsByUser(ctx, userID, cursor, limit)
}

// SessionExercise groups the sets of one exercise within a session.
type SessionExercise struct {
	ExerciseID   string
	ExerciseName string
	Sets         []SetLogDetail
}

// SessionDetail is the full breakdown of one session.
type SessionDetail struct {
	Session       WorkoutSession
	TotalVolumeKg float64
	DurationMin   *float64
	Exercises     []SessionExercise
}

// SessionDetail loads a session with its sets grouped by exercise.
func (s *Service) SessionDetail(ctx context.Context, userID, sessionID string) (*SessionDetail, error) {
	session, err := s.repo.Session(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	logs, err := s.repo.SetLogDetailsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	detail := &SessionDetail{Session: *session, Exercises: make([]SessionExercise, 0)}
	index := make(map[string]int)
	for _, l := range logs {
		detail.TotalVolumeKg += l.WeightKg * float64(l.Reps)
		i, ok := index[l.ExerciseID]
		if !ok {
			i = len(detail.Exercises)
			index[l.ExerciseID] = i
			detail.Exercises = append(detail.Exercises, SessionExercise{
				ExerciseID:   l.ExerciseID,
				ExerciseName: l.ExerciseName,
			})
		}
		detail.Exercises[i].Sets = append(detail.Exercises[i].Sets, l)
	}

	if session.EndedAt != nil {
		minutes := session.EndedAt.Sub(session.StartedAt).Minutes()
		detail.DurationMin = &minutes
	}
	return detail, nil
}

// SetLogInput captures one set to record.
type SetLogInput struct {
	SessionID  string
	ExerciseID string
	SetNumber  int
	WeightKg   float64
	Reps       int
	RPE        *int
}

// Validate rejects malformed sets before any formula sees them.
func (in SetLogInput) Validate() error {
	if in.SessionID == "" {
		return fmt.Errorf("%w: session_id is required", ErrInvalidSetLog)
	}
	if in.ExerciseID == "" {
		return fmt.Errorf("%w: exercise_id is required", ErrInvalidSetLog)
	}
	if in.SetNumber < 1 {
		return fmt.Errorf("%w: set_number must be >= 1", ErrInvalidSetLog)
	}
	if in.WeightKg < 0 {
		return fmt.Errorf("%w: weight_kg must be >= 0", ErrInvalidSetLog)
	}
	if in.Reps < 1 {
		return fmt.Errorf("%w: reps must be >= 1", ErrInvalidSetLog)
	}
	if in.RPE != nil && (*in.RPE < 1 || *in.RPE > 10) {
		return fmt.Errorf("%w: rpe must be between 1 and 10", ErrInvalidSetLog)
	}
	return nil
}

// LogSet records one completed set against an in-progress session.
func (s *Service) LogSet(ctx context.Context, userID string, input SetLogInput) (*SetLog, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	session, err := s.repo.Session(ctx, input.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Finished() {
		return nil, ErrSessionFinished
	}

	exists, err := s.repo.ExerciseExists(ctx, input.ExerciseID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrExerciseNotFound
	}

	log := SetLog{
		ID:         uuid.NewString(),
		SessionID:  input.SessionID,
		ExerciseID: input.ExerciseID,
		SetNumber:  input.SetNumber,
		WeightKg:   input.WeightKg,
		Reps:       input.Reps,
		RPE:        input.RPE,
		LoggedAt:   s.now(),
	}
	if err := s.repo.CreateSetLog(ctx, log); err != nil {
		return nil, err
	}
	return &log, nil
}

// CompletionOutcome is the consolidated result of finishing a session.
type CompletionOutcome struct {
	SessionID       string
	XPGained        int
	TotalXP         int
	Level           int
	CurrentStreak   int
	LongestStreak   int
	StreakMilestone bool
	LevelUp         *LevelUp
}

// CompleteSession seals a session and applies its rewards: XP from volume
// and variety, level-up coins, and the daily streak. The seal and every
// progression field commit in one transaction; finishing an already-finished
// session fails with ErrSessionFinished and awards nothing.
func (s *Service) CompleteSession(ctx context.Context, userID, sessionID string) (*CompletionOutcome, error) {
	now := s.now()
	var outcome *CompletionOutcome

	err := s.repo.InTx(ctx, func(tx Tx) error {
		session, err := tx.SessionForUpdate(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.Finished() {
			return ErrSessionFinished
		}

		if err := tx.SealSession(ctx, sessionID, now); err != nil {
			return err
		}

		logs, err := tx.SetLogsBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		xpGained, _ := SessionXP(logs)

		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		prevLongest := user.LongestStreak
		levelUp := user.AddXP(xpGained)
		streak := user.UpdateStreak(now)

		if err := tx.SaveProgression(ctx, user); err != nil {
			return err
		}

		outcome = &CompletionOutcome{
			SessionID:       sessionID,
			XPGained:        xpGained,
			TotalXP:         user.XP,
			Level:           user.Level,
			CurrentStreak:   streak.CurrentStreak,
			LongestStreak:   streak.LongestStreak,
			StreakMilestone: streak.Updated && streak.LongestStreak > prevLongest,
			LevelUp:         levelUp,
		}

		return tx.RecordEvent(ctx, EventSessionCompleted, sessionID, SessionCompletedEvent{
			SessionID:     sessionID,
			UserID:        userID,
			XPGained:      xpGained,
			TotalXP:       user.XP,
			Level:         user.Level,
			LevelUp:       levelUp != nil,
			CurrentStreak: streak.CurrentStreak,
			LongestStreak: streak.LongestStreak,
			CompletedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	observability.RecordSessionCompleted(outcome.XPGained)
	if outcome.LevelUp != nil {
		observability.RecordLevelUp(outcome.Level)
	}
	return outcome, nil
}

// UnlockedAchievement reports one achievement granted by an evaluation run.
type UnlockedAchievement struct {
	AchievementID string
	Name          string
	XPReward      int
	CoinsReward   int
}

// EvaluateAchievements compares the user's cumulative stats against the
// still-locked catalog, unlocking everything that qualifies and applying the
// rewards (with cascading level-ups) in one transaction. Re-running is a
// no-op for anything already unlocked.
func (s *Service) EvaluateAchievements(ctx context.Context, userID string) ([]UnlockedAchievement, error) {
	now := s.now()
	var unlocked []UnlockedAchievement

	err := s.repo.InTx(ctx, func(tx Tx) error {
		unlocked = make([]UnlockedAchievement, 0)

		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		stats, err := tx.StatsByUser(ctx, userID)
		if err != nil {
			return err
		}
		stats.Level = user.Level
		stats.CurrentStreak = user.CurrentStreak

		locked, err := tx.LockedAchievements(ctx, userID)
		if err != nil {
			return err
		}

		for _, a := range QualifyingAchievements(stats, locked) {
			inserted, err := tx.InsertUnlock(ctx, userID, a.ID, now)
			if err != nil {
				return err
			}
			if !inserted {
				// Lost a race with a concurrent evaluation; the unique
				// constraint keeps the unlock single.
				continue
			}

			user.AddXP(a.XPReward)
			user.Coins += a.CoinsReward

			unlocked = append(unlocked, UnlockedAchievement{
				AchievementID: a.ID,
				Name:          a.Name,
				XPReward:      a.XPReward,
				CoinsReward:   a.CoinsReward,
			})

			unlockID := fmt.Sprintf("%s:%s", userID, a.ID)
			if err := tx.RecordEvent(ctx, EventAchievementUnlocked, unlockID, AchievementUnlockedEvent{
				UserID:        userID,
				AchievementID: a.ID,
				Name:          a.Name,
				XPReward:      a.XPReward,
				CoinsReward:   a.CoinsReward,
				UnlockedAt:    now,
			}); err != nil {
				return err
			}
		}

		if len(unlocked) == 0 {
			return nil
		}
		return tx.SaveProgression(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	if len(unlocked) > 0 {
		observability.RecordAchievementsUnlocked(len(unlocked))
	}
	return unlocked, nil
}

// AchievementCatalog lists every achievement with the caller's unlocked
// flags.
func (s *Service) AchievementCatalog(ctx context.Context, userID string) ([]AchievementStatus, error) {
	return s.repo.AchievementStatuses(ctx, userID)
}

// Profile is the progression view of a user.
type Profile struct {
	UserProgression
	ProgressPercentage float64
	XPForNextLevel     int
	AchievementsCount  int
}

// Profile assembles the caller's progression profile.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.repo.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	count, err := s.repo.UnlockCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		UserProgression:    *user,
		ProgressPercentage: ProgressPercentage(user.XP, user.Level),
		XPForNextLevel:     XPRequiredForLevel(user.Level + 1),
		AchievementsCount:  count,
	}, nil
}

// MuscleGroupVolumes aggregates training volume per muscle group over a
// trailing window.
func (s *Service) MuscleGroupVolumes(ctx context.Context, userID string, windowDays int) ([]MuscleGroupVolume, error) {
	if windowDays <= 0 {
		windowDays = DefaultVolumeWindowDays
	}
	sets, err := s.repo.TrainingSetsByUser(ctx, userID, s.now().AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, err
	}
	return VolumeByMuscleGroup(sets), nil
}

// ExerciseProgression charts the daily best estimated 1RM of one exercise
// over a trailing window.
func (s *Service) ExerciseProgression(ctx context.Context, userID, exerciseID string, windowDays int) ([]ProgressionPoint, error) {
	if windowDays <= 0 {
		windowDays = DefaultProgressionWindowDays
	}

	exists, err := s.repo.ExerciseExists(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrExerciseNotFound
	}

	sets, err := s.repo.TrainingSetsByExercise(ctx, userID, exerciseID, s.now().AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, err
	}
	return OneRepMaxProgression(sets), nil
}

// Records lists the caller's personal records across all history.
func (s *Service) Records(ctx context.Context, userID string) ([]PersonalRecord, error) {
	sets, err := s.repo.TrainingSetsByUser(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	return PersonalRecords(sets), nil
}

// Heatmap counts sessions per calendar day over a trailing window.
func (s *Service) Heatmap(ctx context.Context, userID string, windowDays int) ([]HeatmapEntry, error) {
	if windowDays <= 0 {
		windowDays = DefaultHeatmapWindowDays
	}
	starts, err := s.repo.SessionStartsByUser(ctx, userID, s.now().AddDate(0, 0, -windowDays))
	if err != nil {
		return nil, err
	}
	return TrainingHeatmap(starts), nil
}

// WeeklyVolumes aggregates volume per ISO week over a trailing window.
func (s *Service) WeeklyVolumes(ctx context.Context, userID string, weeks int) ([]WeekVolume, error) {
	if weeks <= 0 {
		weeks = DefaultWeeklyVolumeWeeks
	}
	sets, err := s.repo.TrainingSetsByUser(ctx, userID, s.now().AddDate(0, 0, -7*weeks))
	if err != nil {
		return nil, err
	}
	return WeeklyVolume(sets), nil
}

// StatsSummary is the dashboard overview of a training history.
type StatsSummary struct {
	TotalSessions    int
	RecentSessions   int
	TotalVolumeKg    float64
	FavoriteExercise string
}

// Summary assembles the caller's overall training statistics.
func (s *Service) Summary(ctx context.Context, userID string) (*StatsSummary, error) {
	stats, err := s.repo.StatsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.SessionCountSince(ctx, userID, s.now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	favorite, err := s.repo.FavoriteExercise(ctx, userID)
	if err != nil {
		return nil, err
	}
	if favorite == "" {
		favorite = "N/A"
	}

	return &StatsSummary{
		TotalSessions:    stats.TotalSessions,
		RecentSessions:   recent,
		TotalVolumeKg:    stats.TotalVolumeKg,
		FavoriteExercise: favorite,
	}, nil
}

// ShopListing is a shop item with the caller's purchase eligibility.
type ShopListing struct {
	ShopItem
	CanBuy bool
	Locked bool
}

// ShopCatalog lists active shop items with eligibility computed against the
// caller's level and balance.
func (s *Service) ShopCatalog(ctx context.Context, userID string) ([]ShopListing, error) {
	user, err := s.repo.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	items, err := s.repo.ActiveShopItems(ctx)
	if err != nil {
		return nil, err
	}

	listings := make([]ShopListing, 0, len(items))
	for _, item := range items {
		locked := user.Level < item.RequiredLevel
		listings = append(listings, ShopListing{
			ShopItem: item,
			CanBuy:   !locked && user.Coins >= item.Price,
			Locked:   locked,
		})
	}
	return listings, nil
}

// PurchaseOutcome reports a completed shop purchase.
type PurchaseOutcome struct {
	ItemID         string
	Name           string
	RemainingCoins int
}

// Purchase spends coins on a shop item and applies its cosmetic effect, all
// in one transaction.
func (s *Service) Purchase(ctx context.Context, userID, itemID string) (*PurchaseOutcome, error) {
	var outcome *PurchaseOutcome

	err := s.repo.InTx(ctx, func(tx Tx) error {
		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		item, err := tx.ShopItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil || !item.Active {
			return ErrShopItemNotFound
		}
		if user.Level < item.RequiredLevel {
			return ErrLevelTooLow
		}
		if user.Coins < item.Price {
			return ErrInsufficientCoins
		}

		user.Coins -= item.Price
		switch item.ItemType {
		case ShopItemAvatar:
			user.AvatarIcon = item.Value
		case ShopItemColor:
			user.UsernameColor = item.Value
		case ShopItemTitle:
			title := item.Value
			user.Title = &title
		case ShopItemBadge:
			if item.Value == "verified" {
				user.Verified = true
			}
		}

		if err := tx.SaveProgression(ctx, user); err != nil {
			return err
		}

		outcome = &PurchaseOutcome{
			ItemID:         item.ID,
			Name:           item.Name,
			RemainingCoins: user.Coins,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}
