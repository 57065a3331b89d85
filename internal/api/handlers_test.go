package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/gymtrack/internal/auth"
	"example.com/gymtrack/internal/domain"
)

func testClaims(scopes ...string) *auth.Claims {
	set := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		set[s] = struct{}{}
	}
	return &auth.Claims{
		Subject:   "user-1",
		Username:  "tester",
		Scopes:    set,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func authed(req *http.Request, claims *auth.Claims) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func TestCompleteSessionSuccess(t *testing.T) {
	now := time.Date(2025, time.June, 3, 19, 0, 0, 0, time.UTC)
	repo := newMockRepo()
	repo.user = &domain.UserProgression{ID: "user-1", XP: 80, Level: 1}
	repo.sessions["sess-1"] = &domain.WorkoutSession{ID: "sess-1", UserID: "user-1", StartedAt: now.Add(-time.Hour)}
	repo.logs["sess-1"] = []domain.SetLog{
		{ExerciseID: "ex-bench-press", WeightKg: 100, Reps: 5},
		{ExerciseID: "ex-back-squat", WeightKg: 140, Reps: 5},
	}

	handler := NewHandler(domain.NewService(repo))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/complete", nil),
		testClaims(auth.ScopeWorkoutsWrite))
	rr := httptest.NewRecorder()
	handler.sessionSubtree(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp CompleteSessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.XPGained != 42 {
		t.Fatalf("xp_gained = %d, want 42", resp.XPGained)
	}
	if resp.LevelUp == nil || resp.LevelUp.NewLevel != 2 {
		t.Fatalf("unexpected level_up %+v", resp.LevelUp)
	}
}

func TestCompleteSessionTwiceConflicts(t *testing.T) {
	now := time.Date(2025, time.June, 3, 19, 0, 0, 0, time.UTC)
	ended := now.Add(-time.Minute)
	repo := newMockRepo()
	repo.user = &domain.UserProgression{ID: "user-1", Level: 1}
	repo.sessions["sess-1"] = &domain.WorkoutSession{ID: "sess-1", UserID: "user-1", StartedAt: now.Add(-time.Hour), EndedAt: &ended}

	handler := NewHandler(domain.NewService(repo))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/complete", nil),
		testClaims(auth.ScopeWorkoutsWrite))
	rr := httptest.NewRecorder()
	handler.sessionSubtree(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d: %s", rr.Code, rr.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body["type"] != "invalid_state" {
		t.Fatalf("error type = %q, want invalid_state", body["type"])
	}
}

func TestCompleteSessionRequiresWriteScope(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo()))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/complete", nil),
		testClaims(auth.ScopeWorkoutsRead))
	rr := httptest.NewRecorder()
	handler.sessionSubtree(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rr.Code)
	}
}

func TestLogSetValidationFailure(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo()))

	body := strings.NewReader(`{"exercise_id":"ex-bench-press","set_number":1,"weight_kg":60,"reps":0}`)
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/sessions/sess-1/logs", body),
		testClaims(auth.ScopeWorkoutsWrite))
	rr := httptest.NewRecorder()
	handler.sessionSubtree(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestStartSessionCreates(t *testing.T) {
	repo := newMockRepo()
	handler := NewHandler(domain.NewService(repo))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{}`)),
		testClaims(auth.ScopeWorkoutsWrite))
	rr := httptest.NewRecorder()
	handler.sessions(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp SessionView
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID == "" || resp.UserID != "user-1" || resp.Finished {
		t.Fatalf("unexpected session view %+v", resp)
	}
	if repo.user == nil || repo.user.Username != "tester" {
		t.Fatalf("user not provisioned: %+v", repo.user)
	}
}

func TestProfileView(t *testing.T) {
	repo := newMockRepo()
	repo.user = &domain.UserProgression{
		ID:       "user-1",
		Username: "tester",
		XP:       150,
		Level:    2,
		Coins:    30,
	}
	repo.unlockCount = 3

	handler := NewHandler(domain.NewService(repo))

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/profile", nil),
		testClaims(auth.ScopeWorkoutsRead))
	rr := httptest.NewRecorder()
	handler.profile(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp ProfileResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// Level 2 spans 100..400 XP, so 150 XP sits at one sixth.
	if resp.ProgressPercentage < 16.6 || resp.ProgressPercentage > 16.7 {
		t.Fatalf("progress = %f", resp.ProgressPercentage)
	}
	if resp.XPForNextLevel != 400 || resp.AchievementsCount != 3 {
		t.Fatalf("unexpected profile %+v", resp)
	}
}

func TestAnalyticsEmptyHistory(t *testing.T) {
	repo := newMockRepo()
	repo.user = &domain.UserProgression{ID: "user-1", Level: 1}
	handler := NewHandler(domain.NewService(repo))

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/analytics/volume", nil),
		testClaims(auth.ScopeWorkoutsRead))
	rr := httptest.NewRecorder()
	handler.volume(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	var resp MuscleGroupVolumeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Items == nil || len(resp.Items) != 0 {
		t.Fatalf("expected empty items array, got %v", resp.Items)
	}
}

func TestPurchaseLevelLocked(t *testing.T) {
	repo := newMockRepo()
	repo.user = &domain.UserProgression{ID: "user-1", Level: 2, Coins: 1000}
	repo.item = &domain.ShopItem{ID: "shop-title-legend", ItemType: domain.ShopItemTitle, Value: "Gym Legend", Price: 250, RequiredLevel: 35, Active: true}

	handler := NewHandler(domain.NewService(repo))

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/shop/purchase/shop-title-legend", nil),
		testClaims(auth.ScopeWorkoutsWrite))
	rr := httptest.NewRecorder()
	handler.purchase(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestMissingClaimsUnauthorized(t *testing.T) {
	handler := NewHandler(domain.NewService(newMockRepo()))

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	rr := httptest.NewRecorder()
	handler.profile(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

// mockRepo implements both domain.Repository and domain.Tx in memory.
type mockRepo struct {
	user        *domain.UserProgression
	sessions    map[string]*domain.WorkoutSession
	logs        map[string][]domain.SetLog
	item        *domain.ShopItem
	unlockCount int
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		sessions: make(map[string]*domain.WorkoutSession),
		logs:     make(map[string][]domain.SetLog),
	}
}

func (m *mockRepo) InTx(ctx context.Context, fn func(domain.Tx) error) error {
	return fn(m)
}

func (m *mockRepo) SessionForUpdate(ctx context.Context, sessionID, userID string) (*domain.WorkoutSession, error) {
	return m.Session(ctx, sessionID, userID)
}

func (m *mockRepo) SealSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	m.sessions[sessionID].EndedAt = &endedAt
	return nil
}

func (m *mockRepo) SetLogsBySession(ctx context.Context, sessionID string) ([]domain.SetLog, error) {
	return m.logs[sessionID], nil
}

func (m *mockRepo) UserForUpdate(ctx context.Context, userID string) (*domain.UserProgression, error) {
	return m.User(ctx, userID)
}

func (m *mockRepo) SaveProgression(ctx context.Context, user *domain.UserProgression) error {
	copied := *user
	m.user = &copied
	return nil
}

func (m *mockRepo) StatsByUser(ctx context.Context, userID string) (domain.UserStats, error) {
	return domain.UserStats{}, nil
}

func (m *mockRepo) LockedAchievements(ctx context.Context, userID string) ([]domain.Achievement, error) {
	return nil, nil
}

func (m *mockRepo) InsertUnlock(ctx context.Context, userID, achievementID string, unlockedAt time.Time) (bool, error) {
	return true, nil
}

func (m *mockRepo) ShopItem(ctx context.Context, itemID string) (*domain.ShopItem, error) {
	if m.item == nil || m.item.ID != itemID {
		return nil, nil
	}
	copied := *m.item
	return &copied, nil
}

func (m *mockRepo) RecordEvent(ctx context.Context, eventType, aggregateID string, payload any) error {
	return nil
}

func (m *mockRepo) EnsureUser(ctx context.Context, userID, username string) error {
	if m.user == nil {
		m.user = &domain.UserProgression{ID: userID, Username: username, Level: 1}
	}
	return nil
}

func (m *mockRepo) User(ctx context.Context, userID string) (*domain.UserProgression, error) {
	if m.user == nil || m.user.ID != userID {
		return nil, nil
	}
	copied := *m.user
	return &copied, nil
}

func (m *mockRepo) UnlockCount(ctx context.Context, userID string) (int, error) {
	return m.unlockCount, nil
}

func (m *mockRepo) CreateSession(ctx context.Context, session domain.WorkoutSession) error {
	copied := session
	m.sessions[session.ID] = &copied
	return nil
}

func (m *mockRepo) Session(ctx context.Context, sessionID, userID string) (*domain.WorkoutSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *mockRepo) SessionsByUser(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.WorkoutSession, *domain.Cursor, error) {
	return nil, nil, nil
}

func (m *mockRepo) SessionCountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return 0, nil
}

func (m *mockRepo) SessionStartsByUser(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	return nil, nil
}

func (m *mockRepo) ExerciseExists(ctx context.Context, exerciseID string) (bool, error) {
	return true, nil
}

func (m *mockRepo) CreateSetLog(ctx context.Context, log domain.SetLog) error {
	m.logs[log.SessionID] = append(m.logs[log.SessionID], log)
	return nil
}

func (m *mockRepo) SetLogDetailsBySession(ctx context.Context, sessionID string) ([]domain.SetLogDetail, error) {
	return nil, nil
}

func (m *mockRepo) TrainingSetsByUser(ctx context.Context, userID string, since time.Time) ([]domain.TrainingSet, error) {
	return nil, nil
}

func (m *mockRepo) TrainingSetsByExercise(ctx context.Context, userID, exerciseID string, since time.Time) ([]domain.TrainingSet, error) {
	return nil, nil
}

func (m *mockRepo) FavoriteExercise(ctx context.Context, userID string) (string, error) {
	return "", nil
}

func (m *mockRepo) AchievementStatuses(ctx context.Context, userID string) ([]domain.AchievementStatus, error) {
	return nil, nil
}

func (m *mockRepo) ActiveShopItems(ctx context.Context) ([]domain.ShopItem, error) {
	return nil, nil
}
