package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"example.com/gymtrack/internal/domain"
)

// EventMetadata describes how an event type maps onto the outbox routing
// columns.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(payload any) string
}

// partitionByUser keys every event on the owning user so a user's events
// stay ordered on a single partition.
func partitionByUser(payload any) string {
	switch p := payload.(type) {
	case domain.SessionCompletedEvent:
		return p.UserID
	case domain.AchievementUnlockedEvent:
		return p.UserID
	}
	return ""
}

var eventCatalog = map[string]EventMetadata{
	domain.EventSessionCompleted: {
		Topic:          "progression_events",
		SchemaSubject:  "progression_events-value",
		PartitionKeyFn: partitionByUser,
	},
	domain.EventAchievementUnlocked: {
		Topic:          "achievement_events",
		SchemaSubject:  "achievement_events-value",
		PartitionKeyFn: partitionByUser,
	},
}

// RecordEvent stages an event in the outbox within the surrounding
// transaction, so events only exist for committed state changes.
func (t *txUnit) RecordEvent(ctx context.Context, eventType, aggregateID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	partitionKey := meta.PartitionKeyFn(payload)
	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = t.tx.Exec(ctx, stmt,
		"progression",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}
