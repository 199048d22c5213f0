package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/doors/go/internal/models"
)

// DoorView is a door as the client sees it. IsDeath and Reward are only set
// once the door is opened.
type DoorView struct {
	ID      int  `json:"id"`
	Opened  bool `json:"opened"`
	IsDeath bool `json:"is_death,omitempty"`
	Reward  int  `json:"reward,omitempty"`
}

// State is the snapshot of a game pushed to clients and returned by every
// operation.
type State struct {
	GameID        uuid.UUID  `json:"game_id"`
	SessionID     uuid.UUID  `json:"session_id"`
	Phase         Phase      `json:"phase"`
	Doors         []DoorView `json:"doors"`
	Wins          int        `json:"wins"`
	PendingReward *int       `json:"pending_reward,omitempty"`
	GameOver      bool       `json:"game_over"`
	IsDead        bool       `json:"is_dead"`
	ZoomedDoor    *int       `json:"zoomed_door,omitempty"`
	Submitted     bool       `json:"submitted"`
	StartedAt     time.Time  `json:"started_at"`
}

// GameRequest addresses a game without further arguments.
type GameRequest struct {
	GameID uuid.UUID `json:"game_id"`
}

type NewGameRequest struct{}

type OpenDoorRequest struct {
	GameID uuid.UUID `json:"game_id"`
	DoorID int       `json:"door_id"`
}

type AcknowledgeWinRequest struct {
	GameID   uuid.UUID `json:"game_id"`
	Continue bool      `json:"continue"`
}

type AcknowledgeDeathRequest struct {
	GameID  uuid.UUID `json:"game_id"`
	Restart bool      `json:"restart"`
}

type SubmitScoreRequest struct {
	GameID uuid.UUID `json:"game_id"`
	Name   string    `json:"name"`
}

// StateResponse carries the game snapshot after an operation.
type StateResponse struct {
	State State `json:"state"`
}

// LeaderboardStateResponse carries the snapshot plus the ranked entries shown
// in the leaderboard view.
type LeaderboardStateResponse struct {
	State   State              `json:"state"`
	Entries []models.HighScore `json:"entries"`
}

type EndGameResponse struct{}
