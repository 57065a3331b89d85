// Package api exposes HTTP handlers for the progression service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"example.com/gymtrack/internal/auth"
	"example.com/gymtrack/internal/domain"
	"example.com/gymtrack/internal/persistence"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/sessions", h.sessions)
	mux.HandleFunc("/v1/sessions/", h.sessionSubtree)
	mux.HandleFunc("/v1/achievements", h.achievements)
	mux.HandleFunc("/v1/achievements/evaluate", h.evaluateAchievements)
	mux.HandleFunc("/v1/analytics/volume", h.volume)
	mux.HandleFunc("/v1/analytics/progression/", h.progression)
	mux.HandleFunc("/v1/analytics/records", h.records)
	mux.HandleFunc("/v1/analytics/heatmap", h.heatmap)
	mux.HandleFunc("/v1/analytics/weekly-volume", h.weeklyVolume)
	mux.HandleFunc("/v1/analytics/summary", h.summary)
	mux.HandleFunc("/v1/profile", h.profile)
	mux.HandleFunc("/v1/shop", h.shop)
	mux.HandleFunc("/v1/shop/purchase/", h.purchase)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// caller extracts the authenticated user, enforcing the given scope.
func caller(w http.ResponseWriter, r *http.Request, scope string) (*auth.Claims, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}
	// Write scope implies read.
	if !claims.HasScope(scope) && !(scope == auth.ScopeWorkoutsRead && claims.HasScope(auth.ScopeWorkoutsWrite)) {
		writeError(w, http.StatusForbidden, "forbidden", "scope "+scope+" required")
		return nil, false
	}
	return claims, true
}

func (h *Handler) sessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.startSession(w, r)
	case http.MethodGet:
		h.listSessions(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) sessionSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing session id")
		return
	}

	switch {
	case strings.HasSuffix(rest, "/logs"):
		h.logSet(w, r, strings.TrimSuffix(rest, "/logs"))
	case strings.HasSuffix(rest, "/complete"):
		h.completeSession(w, r, strings.TrimSuffix(rest, "/complete"))
	case !strings.Contains(rest, "/"):
		h.sessionDetail(w, r, rest)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
	}
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req StartSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
			return
		}
	}

	session, err := h.service.StartSession(r.Context(), domain.StartSessionInput{
		UserID:    claims.Subject,
		Username:  claims.Username,
		RoutineID: req.RoutineID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionView(*session))
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	sessions, next, err := h.service.Sessions(r.Context(), claims.Subject, cursor, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, toSessionView(s))
	}
	writeJSON(w, http.StatusOK, ListSessionsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) sessionDetail(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := caller(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}

	detail, err := h.service.SessionDetail(r.Context(), claims.Subject, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := SessionDetailResponse{
		SessionView:   toSessionView(detail.Session),
		TotalVolumeKg: detail.TotalVolumeKg,
		DurationMin:   detail.DurationMin,
		Exercises:     make([]SessionExerciseView, 0, len(detail.Exercises)),
	}
	for _, ex := range detail.Exercises {
		view := SessionExerciseView{
			ExerciseID:   ex.ExerciseID,
			ExerciseName: ex.ExerciseName,
			Sets:         make([]SetLogView, 0, len(ex.Sets)),
		}
		for _, set := range ex.Sets {
			view.Sets = append(view.Sets, toSetLogView(set.SetLog))
		}
		resp.Exercises = append(resp.Exercises, view)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) logSet(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := caller(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	var req LogSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	logged, err := h.service.LogSet(r.Context(), claims.Subject, domain.SetLogInput{
		SessionID:  sessionID,
		ExerciseID: req.ExerciseID,
		SetNumber:  req.SetNumber,
		WeightKg:   req.WeightKg,
		Reps:       req.Reps,
		RPE:        req.RPE,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSetLogView(*logged))
}

func (h *Handler) completeSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := caller(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	outcome, err := h.service.CompleteSession(r.Context(), claims.Subject, sessionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := CompleteSessionResponse{
		SessionID:       outcome.SessionID,
		XPGained:        outcome.XPGained,
		TotalXP:         outcome.TotalXP,
		Level:           outcome.Level,
		CurrentStreak:   outcome.CurrentStreak,
		LongestStreak:   outcome.LongestStreak,
		StreakMilestone: outcome.StreakMilestone,
	}
	if outcome.LevelUp != nil {
		resp.LevelUp = &LevelUpView{
			NewLevel:    outcome.LevelUp.NewLevel,
			CoinsEarned: outcome.LevelUp.CoinsEarned,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) achievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := caller(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}

	statuses, err := h.service.AchievementCatalog(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]AchievementView, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, AchievementView{
			AchievementID: s.ID,
			Name:          s.Name,
			Description:   s.Description,
			Icon:          s.Icon,
			Category:      string(s.Category),
			Requirement:   s.Requirement,
			XPReward:      s.XPReward,
			CoinsReward:   s.CoinsReward,
			Unlocked:      s.Unlocked,
			UnlockedAt:    s.UnlockedAt,
		})
	}
	writeJSON(w, http.StatusOK, AchievementListResponse{Items: items})
}

func (h *Handler) evaluateAchievements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := caller(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	unlocked, err := h.service.EvaluateAchievements(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]UnlockedAchievementView, 0, len(unlocked))
	for _, a := range unlocked {
		items = append(items, UnlockedAchievementView{
			AchievementID: a.AchievementID,
			Name:          a.Name,
			XPReward:      a.XPReward,
			CoinsReward:   a.CoinsReward,
		})
	}
	writeJSON(w, http.StatusOK, EvaluateAchievementsResponse{Unlocked: items})
}

func (h *Handler) volume(w http.ResponseWriter, r *http.Request) {
	claims, ok := analyticsCaller(w, r)
	if !ok {
		return
	}

	volumes, err := h.service.MuscleGroupVolumes(r.Context(), claims.Subject, queryInt(r, "days"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]MuscleGroupVolumeView, 0, len(volumes))
	for _, v := range volumes {
		items = append(items, MuscleGroupVolumeView{MuscleGroup: v.MuscleGroup, VolumeKg: v.VolumeKg})
	}
	writeJSON(w, http.StatusOK, MuscleGroupVolumeResponse{Items: items})
}

func (h *Handler) progression(w http.ResponseWriter, r *http.Request) {
	claims, ok := analyticsCaller(w, r)
	if !ok {
		return
	}

	exerciseID := strings.TrimPrefix(r.URL.Path, "/v1/analytics/progression/")
	if exerciseID == "" || strings.Contains(exerciseID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing exercise id")
		return
	}

	points, err := h.service.ExerciseProgression(r.Context(), claims.Subject, exerciseID, queryInt(r, "days"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]ProgressionPointView, 0, len(points))
	for _, p := range points {
		items = append(items, ProgressionPointView{
			Date:         p.Date.Format("2006-01-02"),
			Estimated1RM: p.Estimated1RM,
		})
	}
	writeJSON(w, http.StatusOK, ProgressionResponse{ExerciseID: exerciseID, Points: items})
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	claims, ok := analyticsCaller(w, r)
	if !ok {
		return
	}

	records, err := h.service.Records(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]PersonalRecordView, 0, len(records))
	for _, rec := range records {
		items = append(items, PersonalRecordView{
			ExerciseID:   rec.ExerciseID,
			ExerciseName: rec.ExerciseName,
			MuscleGroup:  rec.MuscleGroup,
			Estimated1RM: rec.Estimated1RM,
			WeightKg:     rec.WeightKg,
			Reps:         rec.Reps,
			Date:         rec.Date.Format("2006-01-02"),
		})
	}
	writeJSON(w, http.StatusOK, PersonalRecordsResponse{Items: items})
}

func (h *Handler) heatmap(w http.ResponseWriter, r *http.Request) {
	claims, ok := analyticsCaller(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Heatmap(r.Context(), claims.Subject, queryInt(r, "days"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]HeatmapEntryView, 0, len(entries))
	for _, e := range entries {
		items = append(items, HeatmapEntryView{
			Date:  e.Date.Format("2006-01-02"),
			Count: e.Count,
		})
	}
	writeJSON(w, http.StatusOK, HeatmapResponse{Items: items})
}

func (h *Handler) weeklyVolume(w http.ResponseWriter, r *http.Request) {
	claims, ok := analyticsCaller(w, r)
	if !ok {
		return
	}

	weeksVolumes, err := h.service.WeeklyVolumes(r.Context(), claims.Subject, queryInt(r, "weeks"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]WeekVolumeView, 0, len(weeksVolumes))
	for _, v := range weeksVolumes {
		items = append(items, WeekVolumeView{Week: v.Week, VolumeKg: v.VolumeKg})
	}
	writeJSON(w, http.StatusOK, WeeklyVolumeResponse{Items: items})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := analyticsCaller(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Summary(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SummaryResponse{
		TotalSessions:    stats.TotalSessions,
		RecentSessions:   stats.RecentSessions,
		TotalVolumeKg:    stats.TotalVolumeKg,
		FavoriteExercise: stats.FavoriteExercise,
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := caller(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}

	profile, err := h.service.Profile(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ProfileResponse{
		UserID:             profile.ID,
		Username:           profile.Username,
		XP:                 profile.XP,
		Level:              profile.Level,
		Coins:              profile.Coins,
		ProgressPercentage: profile.ProgressPercentage,
		XPForNextLevel:     profile.XPForNextLevel,
		CurrentStreak:      profile.CurrentStreak,
		LongestStreak:      profile.LongestStreak,
		LastWorkoutDate:    profile.LastWorkoutDate,
		AvatarIcon:         profile.AvatarIcon,
		UsernameColor:      profile.UsernameColor,
		Verified:           profile.Verified,
		Title:              profile.Title,
		AchievementsCount:  profile.AchievementsCount,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) shop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := caller(w, r, auth.ScopeWorkoutsRead)
	if !ok {
		return
	}

	listings, err := h.service.ShopCatalog(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]ShopItemView, 0, len(listings))
	for _, l := range listings {
		items = append(items, ShopItemView{
			ItemID:        l.ID,
			Name:          l.Name,
			Description:   l.Description,
			ItemType:      string(l.ItemType),
			Value:         l.Value,
			Price:         l.Price,
			RequiredLevel: l.RequiredLevel,
			CanBuy:        l.CanBuy,
			Locked:        l.Locked,
		})
	}
	writeJSON(w, http.StatusOK, ShopListResponse{Items: items})
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := caller(w, r, auth.ScopeWorkoutsWrite)
	if !ok {
		return
	}

	itemID := strings.TrimPrefix(r.URL.Path, "/v1/shop/purchase/")
	if itemID == "" || strings.Contains(itemID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing item id")
		return
	}

	outcome, err := h.service.Purchase(r.Context(), claims.Subject, itemID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PurchaseResponse{
		ItemID:         outcome.ItemID,
		Name:           outcome.Name,
		RemainingCoins: outcome.RemainingCoins,
	})
}

// analyticsCaller applies the shared method and scope checks of the
// read-only analytics endpoints.
func analyticsCaller(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return nil, false
	}
	return caller(w, r, auth.ScopeWorkoutsRead)
}

// queryInt parses a positive integer query parameter, 0 when absent or
// malformed so the service applies its default window.
func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrExerciseNotFound),
		errors.Is(err, domain.ErrShopItemNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrSessionFinished):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrInvalidSetLog):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrInsufficientCoins):
		writeError(w, http.StatusBadRequest, "insufficient_coins", err.Error())
	case errors.Is(err, domain.ErrLevelTooLow):
		writeError(w, http.StatusForbidden, "level_locked", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toSessionView(s domain.WorkoutSession) SessionView {
	return SessionView{
		SessionID: s.ID,
		UserID:    s.UserID,
		RoutineID: s.RoutineID,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Finished:  s.Finished(),
	}
}

func toSetLogView(l domain.SetLog) SetLogView {
	return SetLogView{
		SetID:      l.ID,
		SessionID:  l.SessionID,
		ExerciseID: l.ExerciseID,
		SetNumber:  l.SetNumber,
		WeightKg:   l.WeightKg,
		Reps:       l.Reps,
		RPE:        l.RPE,
		LoggedAt:   l.LoggedAt,
	}
}
