package leaderboard

import (
	"errors"
	"fmt"
)

const (
	// MaxNameLength is the longest name, in characters, a score can be saved under.
	MaxNameLength = 32
	// MaxFetch caps how many entries one FetchTop call returns.
	MaxFetch = 100
)

var (
	ErrEmptyName     = errors.New("name is required")
	ErrNameTooLong   = fmt.Errorf("name must be at most %d characters", MaxNameLength)
	ErrNegativeScore = errors.New("score must not be negative")
	ErrNotFound      = errors.New("high score not found")

	errNegativeLimit = errors.New("limit must not be negative")
)

// SubmitError reports that the store could not record a score. The caller
// may retry.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to submit score: %v", e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}
