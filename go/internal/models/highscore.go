package models

import (
	"time"

	"github.com/google/uuid"
)

// HighScore represents a row of the leaderboard
type HighScore struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Score     int              `json:"score"`
	Details   HighScoreDetails `json:"details"`
	CreatedAt time.Time        `json:"created_at"`
}

// HighScoreDetails is stored alongside a score as JSON
type HighScoreDetails struct {
	SessionID   uuid.UUID `json:"session_id"`
	DoorsOpened int       `json:"doors_opened"`
}
