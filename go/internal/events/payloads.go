package events

import (
	"time"

	"github.com/google/uuid"
)

// Event payload types shared between the game app and the bus publishers

const (
	TypeSessionStarted  = "SessionStarted"
	TypeDoorOpened      = "DoorOpened"
	TypeOutcomeRevealed = "OutcomeRevealed"
	TypeWinBanked       = "WinBanked"
	TypePlayerDied      = "PlayerDied"
	TypeCashedOut       = "CashedOut"
	TypeScoreSubmitted  = "ScoreSubmitted"
	TypeSessionReset    = "SessionReset"
)

// SessionStartedPayload is the payload for a SessionStarted event
type SessionStartedPayload struct {
	StartedAt time.Time `json:"started_at"`
}

// DoorOpenedPayload is the payload for a DoorOpened event
type DoorOpenedPayload struct {
	DoorID   int       `json:"door_id"`
	OpenedAt time.Time `json:"opened_at"`
}

// OutcomeRevealedPayload is the payload for an OutcomeRevealed event
type OutcomeRevealedPayload struct {
	DoorID  int  `json:"door_id"`
	IsDeath bool `json:"is_death"`
	Reward  int  `json:"reward,omitempty"`
}

// WinBankedPayload is the payload for a WinBanked event
type WinBankedPayload struct {
	Reward int `json:"reward"`
	Wins   int `json:"wins"`
}

// PlayerDiedPayload is the payload for a PlayerDied event
type PlayerDiedPayload struct {
	DoorID      int `json:"door_id"`
	Wins        int `json:"wins"`
	DoorsOpened int `json:"doors_opened"`
}

// CashedOutPayload is the payload for a CashedOut event
type CashedOutPayload struct {
	Wins        int `json:"wins"`
	DoorsOpened int `json:"doors_opened"`
}

// ScoreSubmittedPayload is the payload for a ScoreSubmitted event
type ScoreSubmittedPayload struct {
	EntryID uuid.UUID `json:"entry_id"`
	Name    string    `json:"name"`
	Score   int       `json:"score"`
}

// SessionResetPayload is the payload for a SessionReset event
type SessionResetPayload struct {
	PreviousSessionID uuid.UUID `json:"previous_session_id"`
	Reason            string    `json:"reason"`
}
