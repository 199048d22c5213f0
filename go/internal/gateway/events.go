package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GameEvent is the message pushed to websocket clients
type GameEvent struct {
	ID        string          `json:"id"`                // Event UUID
	GameID    string          `json:"game_id,omitempty"` // Game UUID, empty for global events
	Type      EventType       `json:"type"`              // Event type
	Timestamp time.Time       `json:"timestamp"`         // Event creation time
	Data      json.RawMessage `json:"data"`              // Event-specific payload
}

// EventType represents the type of pushed event
type EventType string

const (
	// EventTypeStateChanged carries a full game snapshot
	EventTypeStateChanged EventType = "StateChanged"
	// EventTypeLeaderboardUpdated carries a new leaderboard entry
	EventTypeLeaderboardUpdated EventType = "LeaderboardUpdated"
)

// NewGameEvent marshals data into an event. A zero gameID marks the event as
// global.
func NewGameEvent(eventType EventType, gameID uuid.UUID, at time.Time, data any) (*GameEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s data: %w", eventType, err)
	}
	event := &GameEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: at,
		Data:      raw,
	}
	if gameID != uuid.Nil {
		event.GameID = gameID.String()
	}
	return event, nil
}
