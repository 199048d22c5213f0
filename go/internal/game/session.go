package game

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSubmitInFlight is returned when a score submission is already running for
// the session.
var ErrSubmitInFlight = errors.New("score submission already in flight")

// errIgnored marks a transition that is not valid in the current phase. It
// never leaves the package: invalid transitions are silently dropped.
var errIgnored = errors.New("transition ignored")

// Session is the state machine of one playthrough. It does no scheduling and
// no I/O; the App drives the timed steps and guards it with a lock.
type Session struct {
	id         uuid.UUID
	board      Board
	phase      Phase
	covered    Phase // phase hidden behind the reset confirmation
	wins       int
	gameOver   bool
	isDead     bool
	pending    *int
	zoomed     int // -1 when no door is zoomed
	submitted  bool
	submitting bool
	startedAt  time.Time
}

// NewSession starts a session on board b behind the rules gate.
func NewSession(b Board, now time.Time) *Session {
	return &Session{
		id:        uuid.New(),
		board:     b,
		phase:     PhaseRulesGate,
		covered:   PhaseRulesGate,
		zoomed:    -1,
		startedAt: now,
	}
}

func (s *Session) ID() uuid.UUID        { return s.id }
func (s *Session) Board() Board         { return s.board }
func (s *Session) Phase() Phase         { return s.phase }
func (s *Session) Wins() int            { return s.wins }
func (s *Session) GameOver() bool       { return s.gameOver }
func (s *Session) IsDead() bool         { return s.isDead }
func (s *Session) Submitted() bool      { return s.submitted }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// PendingReward returns the revealed reward that has not been banked yet.
func (s *Session) PendingReward() (int, bool) {
	if s.pending == nil {
		return 0, false
	}
	return *s.pending, true
}

// effective is the phase the reveal sequence is in, looking through the reset
// confirmation overlay.
func (s *Session) effective() Phase {
	if s.phase == PhaseAwaitingResetConfirm {
		return s.covered
	}
	return s.phase
}

// advance moves a timed step forward. While the reset confirmation is shown
// the covered phase moves instead, so cancelling lands where the sequence is.
func (s *Session) advance(p Phase) {
	if s.phase == PhaseAwaitingResetConfirm {
		s.covered = p
		return
	}
	s.phase = p
}

// DismissRules closes the rules gate.
func (s *Session) DismissRules() bool {
	if s.phase != PhaseRulesGate {
		return false
	}
	s.phase = PhaseIdle
	return true
}

// BeginOpen selects door id and zooms on it. The returned outcome is resolved
// from the board as it is at selection time.
func (s *Session) BeginOpen(id int) (Outcome, bool) {
	if s.phase != PhaseIdle || s.gameOver {
		return Outcome{}, false
	}
	d, ok := s.board.Door(id)
	if !ok || d.Opened {
		return Outcome{}, false
	}
	outcome, err := Resolve(s.board, id)
	if err != nil {
		return Outcome{}, false
	}
	s.zoomed = id
	s.phase = PhaseZooming
	return outcome, true
}

// Flip marks the zoomed door as opened.
func (s *Session) Flip(id int) bool {
	if s.effective() != PhaseZooming || s.zoomed != id {
		return false
	}
	return s.board.open(id)
}

// Reveal applies the outcome of the zoomed door and starts the matching video.
// A reward is held pending until the player acknowledges it.
func (s *Session) Reveal(o Outcome) bool {
	if s.effective() != PhaseZooming || s.zoomed != o.DoorID {
		return false
	}
	if d, _ := s.board.Door(o.DoorID); !d.Opened {
		return false
	}

	if o.IsDeath {
		s.isDead = true
		s.gameOver = true
		s.pending = nil
		s.advance(PhaseVideoDeath)
		return true
	}

	reward := o.Reward
	s.pending = &reward
	s.advance(PhaseVideoWin)
	return true
}

// EndVideo closes the reveal video and opens the decision popup.
func (s *Session) EndVideo() bool {
	switch s.effective() {
	case PhaseVideoWin:
		s.advance(PhaseAwaitingPostWinDecision)
	case PhaseVideoDeath:
		s.advance(PhaseAwaitingDeathDecision)
	default:
		return false
	}
	s.zoomed = -1
	return true
}

// AcknowledgeWin banks the pending reward. With cont the player keeps
// playing, otherwise the session exits to the save prompt.
func (s *Session) AcknowledgeWin(cont bool) bool {
	if s.phase != PhaseAwaitingPostWinDecision || s.pending == nil {
		return false
	}
	s.wins += *s.pending
	s.pending = nil
	s.phase = PhaseIdle
	if !cont {
		s.Exit()
	}
	return true
}

// AcknowledgeDeath closes the death popup. It reports whether the player asked
// for a new game; replacing the session is up to the caller.
func (s *Session) AcknowledgeDeath(restart bool) (bool, bool) {
	if s.phase != PhaseAwaitingDeathDecision {
		return false, false
	}
	if restart {
		return true, true
	}
	s.phase = PhaseIdle
	return false, true
}

// Exit cashes out: the session ends without death and the save prompt opens.
func (s *Session) Exit() bool {
	if s.phase != PhaseIdle || s.gameOver {
		return false
	}
	s.gameOver = true
	s.isDead = false
	s.phase = PhaseAwaitingSave
	return true
}

// BeginSubmit reserves the single in-flight score write and returns the score.
func (s *Session) BeginSubmit() (int, error) {
	if s.phase != PhaseAwaitingSave || s.submitted {
		return 0, errIgnored
	}
	if s.submitting {
		return 0, ErrSubmitInFlight
	}
	s.submitting = true
	return s.wins, nil
}

// FinishSubmit releases the in-flight write. On success the leaderboard view
// opens; on failure the save prompt stays so the player can retry.
func (s *Session) FinishSubmit(ok bool) bool {
	if !s.submitting {
		return false
	}
	s.submitting = false
	if !ok {
		return true
	}
	s.submitted = true
	if s.effective() == PhaseAwaitingSave {
		s.advance(PhaseLeaderboard)
	}
	return true
}

// DeclineSave closes the save prompt without submitting.
func (s *Session) DeclineSave() bool {
	if s.phase != PhaseAwaitingSave || s.submitting {
		return false
	}
	s.phase = PhaseIdle
	return true
}

// ShowLeaderboard opens the leaderboard view.
func (s *Session) ShowLeaderboard() bool {
	if s.phase != PhaseIdle {
		return false
	}
	s.phase = PhaseLeaderboard
	return true
}

// CloseLeaderboard returns from the leaderboard view to the board.
func (s *Session) CloseLeaderboard() bool {
	if s.phase != PhaseLeaderboard {
		return false
	}
	s.phase = PhaseIdle
	return true
}

// RequestReset opens the reset confirmation over whatever is showing.
func (s *Session) RequestReset() bool {
	if s.phase == PhaseAwaitingResetConfirm {
		return false
	}
	s.covered = s.phase
	s.phase = PhaseAwaitingResetConfirm
	return true
}

// CancelReset closes the reset confirmation.
func (s *Session) CancelReset() bool {
	if s.phase != PhaseAwaitingResetConfirm {
		return false
	}
	s.phase = s.covered
	return true
}

// ConfirmReset reports whether a reset may be confirmed. The session itself
// is discarded by the caller, never reused.
func (s *Session) ConfirmReset() bool {
	return s.phase == PhaseAwaitingResetConfirm
}

// Snapshot renders the client view of the session. Door contents stay hidden
// until the door is opened.
func (s *Session) Snapshot(gameID uuid.UUID) State {
	doors := make([]DoorView, 0, DoorCount)
	for _, d := range s.board.Doors() {
		view := DoorView{ID: d.ID, Opened: d.Opened}
		if d.Opened {
			view.IsDeath = d.IsDeath
			view.Reward = d.Reward
		}
		doors = append(doors, view)
	}

	state := State{
		GameID:    gameID,
		SessionID: s.id,
		Phase:     s.phase,
		Doors:     doors,
		Wins:      s.wins,
		GameOver:  s.gameOver,
		IsDead:    s.isDead,
		Submitted: s.submitted,
		StartedAt: s.startedAt,
	}
	if s.pending != nil {
		reward := *s.pending
		state.PendingReward = &reward
	}
	if s.zoomed >= 0 {
		zoomed := s.zoomed
		state.ZoomedDoor = &zoomed
	}
	return state
}
