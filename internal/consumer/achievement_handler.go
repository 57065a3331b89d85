package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"example.com/gymtrack/internal/domain"
)

type achievementEvaluator interface {
	EvaluateAchievements(ctx context.Context, userID string) ([]domain.UnlockedAchievement, error)
}

// AchievementHandler runs achievement evaluation whenever a session
// completion event arrives. Events of other types are acknowledged without
// action.
type AchievementHandler struct {
	service achievementEvaluator
	logger  *log.Logger
}

// NewAchievementHandler constructs a handler over the progression service.
func NewAchievementHandler(service achievementEvaluator, logger *log.Logger) *AchievementHandler {
	if logger == nil {
		logger = log.New(log.Writer(), "[achievements] ", log.LstdFlags)
	}
	return &AchievementHandler{service: service, logger: logger}
}

// Handle decodes a session completion and evaluates the user's achievements.
func (h *AchievementHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != domain.EventSessionCompleted {
		return nil
	}

	var event domain.SessionCompletedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode session completion: %w", err)
	}
	if event.UserID == "" {
		return fmt.Errorf("session completion without user_id (session=%s)", event.SessionID)
	}

	unlocked, err := h.service.EvaluateAchievements(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("evaluate achievements for user %s: %w", event.UserID, err)
	}

	for _, a := range unlocked {
		h.logger.Printf("unlocked %q for user %s (+%d xp, +%d coins)", a.Name, event.UserID, a.XPReward, a.CoinsReward)
	}
	return nil
}
