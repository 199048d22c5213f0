package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/doors/go/internal/events"
	"github.com/mcdev12/doors/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Reveal pacing. These are fixed and not exposed as configuration.
const (
	// FlipDelay is the time between selecting a door and it swinging open.
	FlipDelay = 500 * time.Millisecond
	// RevealDelay is the time between the door opening and the outcome
	// being applied, i.e. one second after the click.
	RevealDelay = 500 * time.Millisecond
	// VideoDuration is how long the win or death video plays.
	VideoDuration = 3 * time.Second
)

const (
	defaultIdleTimeout      = 30 * time.Minute
	defaultLeaderboardLimit = 10
	publishTimeout          = 2 * time.Second
)

var ErrGameNotFound = errors.New("game not found")

// Scheduler runs one delayed callback per session at a time
type Scheduler interface {
	Schedule(key uuid.UUID, d time.Duration, fn func())
	Cancel(key uuid.UUID) bool
}

// Scoreboard defines what the game app needs from the leaderboard
type Scoreboard interface {
	Submit(ctx context.Context, name string, score int, details models.HighScoreDetails) (*models.HighScore, error)
	FetchTop(ctx context.Context, n int) ([]models.HighScore, error)
}

// Broadcaster pushes state snapshots to the clients of a game. It must not
// block: it is called while the game is locked.
type Broadcaster interface {
	PublishState(state State)
}

// Publisher sends game events to the event bus
type Publisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}

// Config holds the tunables of the game app
type Config struct {
	Clock            clockwork.Clock
	Generator        *Generator
	IdleTimeout      time.Duration
	LeaderboardLimit int
}

// DefaultConfig returns the production configuration
func DefaultConfig() Config {
	return Config{
		Clock:            clockwork.NewRealClock(),
		IdleTimeout:      defaultIdleTimeout,
		LeaderboardLimit: defaultLeaderboardLimit,
	}
}

// table is a game: a stable handle whose session is replaced on reset
type table struct {
	id       uuid.UUID
	mu       sync.Mutex
	session  *Session
	lastSeen time.Time
}

// outbound is an event to publish once the game lock is released
type outbound struct {
	eventType string
	payload   any
}

// App is the game session controller. It owns every live game, drives the
// timed reveal sequence and hands final scores to the scoreboard.
type App struct {
	clock            clockwork.Clock
	generator        *Generator
	scheduler        Scheduler
	scoreboard       Scoreboard
	broadcaster      Broadcaster
	publisher        Publisher
	idleTimeout      time.Duration
	leaderboardLimit int

	mu    sync.RWMutex
	games map[uuid.UUID]*table
}

// NewApp creates a new game App
func NewApp(cfg Config, scheduler Scheduler, scoreboard Scoreboard, broadcaster Broadcaster, publisher Publisher) *App {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Generator == nil {
		cfg.Generator = NewGenerator(nil)
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.LeaderboardLimit <= 0 {
		cfg.LeaderboardLimit = defaultLeaderboardLimit
	}
	if broadcaster == nil {
		broadcaster = nopBroadcaster{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}

	return &App{
		clock:            cfg.Clock,
		generator:        cfg.Generator,
		scheduler:        scheduler,
		scoreboard:       scoreboard,
		broadcaster:      broadcaster,
		publisher:        publisher,
		idleTimeout:      cfg.IdleTimeout,
		leaderboardLimit: cfg.LeaderboardLimit,
		games:            make(map[uuid.UUID]*table),
	}
}

// NewGame creates a game with a fresh board behind the rules gate
func (a *App) NewGame(ctx context.Context) (State, error) {
	now := a.clock.Now()
	t := &table{
		id:       uuid.New(),
		session:  NewSession(a.generator.Generate(), now),
		lastSeen: now,
	}

	a.mu.Lock()
	a.games[t.id] = t
	a.mu.Unlock()

	t.mu.Lock()
	state := t.session.Snapshot(t.id)
	t.mu.Unlock()

	log.Info().
		Str("game_id", t.id.String()).
		Str("session_id", state.SessionID.String()).
		Msg("game created")

	a.publishAll(ctx, state, []outbound{{events.TypeSessionStarted, events.SessionStartedPayload{StartedAt: now}}})
	return state, nil
}

// GetState returns the current snapshot of a game
func (a *App) GetState(ctx context.Context, gameID uuid.UUID) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		return false, nil
	})
}

// EndGame discards a game and any pending reveal step
func (a *App) EndGame(ctx context.Context, gameID uuid.UUID) error {
	a.mu.Lock()
	t, exists := a.games[gameID]
	delete(a.games, gameID)
	a.mu.Unlock()
	if !exists {
		return fmt.Errorf("end game %s: %w", gameID, ErrGameNotFound)
	}

	t.mu.Lock()
	a.scheduler.Cancel(t.session.ID())
	t.mu.Unlock()

	log.Info().Str("game_id", gameID.String()).Msg("game ended")
	return nil
}

// DismissRules closes the rules overlay
func (a *App) DismissRules(ctx context.Context, gameID uuid.UUID) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		return s.DismissRules(), nil
	})
}

// OpenDoor selects a door and starts the reveal sequence: the door flips
// open after FlipDelay, the outcome lands after RevealDelay and the decision
// popup follows the video. The outcome is taken from the board at click time.
func (a *App) OpenDoor(ctx context.Context, gameID uuid.UUID, doorID int) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		outcome, ok := s.BeginOpen(doorID)
		if !ok {
			log.Debug().
				Str("game_id", t.id.String()).
				Int("door_id", doorID).
				Str("phase", s.Phase().String()).
				Msg("open door ignored")
			return false, nil
		}

		sessionID := s.ID()
		a.scheduler.Schedule(sessionID, FlipDelay, func() {
			a.flip(t, sessionID, outcome)
		})
		return true, nil
	})
}

func (a *App) flip(t *table, sessionID uuid.UUID, outcome Outcome) {
	a.step(t, sessionID, func(s *Session) (bool, []outbound) {
		if !s.Flip(outcome.DoorID) {
			return false, nil
		}
		a.scheduler.Schedule(sessionID, RevealDelay, func() {
			a.reveal(t, sessionID, outcome)
		})
		return true, []outbound{{events.TypeDoorOpened, events.DoorOpenedPayload{
			DoorID:   outcome.DoorID,
			OpenedAt: a.clock.Now(),
		}}}
	})
}

func (a *App) reveal(t *table, sessionID uuid.UUID, outcome Outcome) {
	a.step(t, sessionID, func(s *Session) (bool, []outbound) {
		if !s.Reveal(outcome) {
			return false, nil
		}
		a.scheduler.Schedule(sessionID, VideoDuration, func() {
			a.endVideo(t, sessionID)
		})

		out := []outbound{{events.TypeOutcomeRevealed, events.OutcomeRevealedPayload{
			DoorID:  outcome.DoorID,
			IsDeath: outcome.IsDeath,
			Reward:  outcome.Reward,
		}}}
		if outcome.IsDeath {
			out = append(out, outbound{events.TypePlayerDied, events.PlayerDiedPayload{
				DoorID:      outcome.DoorID,
				Wins:        s.Wins(),
				DoorsOpened: s.Board().OpenedCount(),
			}})
		}
		return true, out
	})
}

func (a *App) endVideo(t *table, sessionID uuid.UUID) {
	a.step(t, sessionID, func(s *Session) (bool, []outbound) {
		return s.EndVideo(), nil
	})
}

// AcknowledgeWin banks the pending reward. Without cont the player cashes out.
func (a *App) AcknowledgeWin(ctx context.Context, gameID uuid.UUID, cont bool) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		reward, _ := s.PendingReward()
		if !s.AcknowledgeWin(cont) {
			return false, nil
		}
		out := []outbound{{events.TypeWinBanked, events.WinBankedPayload{Reward: reward, Wins: s.Wins()}}}
		if s.Phase() == PhaseAwaitingSave {
			out = append(out, cashedOut(s))
		}
		return true, out
	})
}

// AcknowledgeDeath closes the death popup; with restart the session is
// replaced by a new one.
func (a *App) AcknowledgeDeath(ctx context.Context, gameID uuid.UUID, restart bool) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		wantsRestart, ok := s.AcknowledgeDeath(restart)
		if !ok {
			return false, nil
		}
		if wantsRestart {
			return true, a.replaceSession(t, "restart_after_death")
		}
		return true, nil
	})
}

// Exit cashes out the current winnings and opens the save prompt
func (a *App) Exit(ctx context.Context, gameID uuid.UUID) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		if !s.Exit() {
			return false, nil
		}
		return true, []outbound{cashedOut(s)}
	})
}

// SubmitScore hands the session's winnings to the scoreboard under name. On
// success the leaderboard view opens and its entries are returned; on failure
// the save prompt stays open and the error is returned.
func (a *App) SubmitScore(ctx context.Context, gameID uuid.UUID, name string) (State, []models.HighScore, error) {
	t, err := a.lookup(gameID)
	if err != nil {
		return State{}, nil, err
	}

	t.mu.Lock()
	t.lastSeen = a.clock.Now()
	s := t.session
	score, err := s.BeginSubmit()
	state := s.Snapshot(t.id)
	details := models.HighScoreDetails{SessionID: s.ID(), DoorsOpened: s.Board().OpenedCount()}
	t.mu.Unlock()

	if errors.Is(err, errIgnored) {
		log.Debug().
			Str("game_id", gameID.String()).
			Str("phase", state.Phase.String()).
			Msg("submit score ignored")
		return state, nil, nil
	}
	if err != nil {
		return state, nil, err
	}

	entry, submitErr := a.scoreboard.Submit(ctx, name, score, details)

	t.mu.Lock()
	s.FinishSubmit(submitErr == nil)
	if t.session == s {
		state = s.Snapshot(t.id)
		a.broadcaster.PublishState(state)
	} else {
		state = t.session.Snapshot(t.id)
	}
	t.mu.Unlock()

	if submitErr != nil {
		log.Error().
			Err(submitErr).
			Str("game_id", gameID.String()).
			Int("score", score).
			Msg("failed to submit score")
		return state, nil, submitErr
	}

	log.Info().
		Str("game_id", gameID.String()).
		Str("entry_id", entry.ID.String()).
		Int("score", entry.Score).
		Msg("score submitted")
	a.publishAll(ctx, state, []outbound{{events.TypeScoreSubmitted, events.ScoreSubmittedPayload{
		EntryID: entry.ID,
		Name:    entry.Name,
		Score:   entry.Score,
	}}})

	entries, err := a.scoreboard.FetchTop(ctx, a.leaderboardLimit)
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID.String()).Msg("failed to load leaderboard")
		return state, []models.HighScore{}, nil
	}
	return state, entries, nil
}

// DeclineSave closes the save prompt without submitting
func (a *App) DeclineSave(ctx context.Context, gameID uuid.UUID) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		return s.DeclineSave(), nil
	})
}

// ShowLeaderboard opens the leaderboard view and loads its entries
func (a *App) ShowLeaderboard(ctx context.Context, gameID uuid.UUID) (State, []models.HighScore, error) {
	var opened bool
	state, err := a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		opened = s.ShowLeaderboard()
		return opened, nil
	})
	if err != nil || !opened {
		return state, nil, err
	}

	entries, err := a.scoreboard.FetchTop(ctx, a.leaderboardLimit)
	if err != nil {
		return state, nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return state, entries, nil
}

// CloseLeaderboard returns from the leaderboard view to the board
func (a *App) CloseLeaderboard(ctx context.Context, gameID uuid.UUID) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		return s.CloseLeaderboard(), nil
	})
}

// RequestReset asks the player to confirm starting over
func (a *App) RequestReset(ctx context.Context, gameID uuid.UUID) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		return s.RequestReset(), nil
	})
}

// CancelReset keeps the current session
func (a *App) CancelReset(ctx context.Context, gameID uuid.UUID) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		return s.CancelReset(), nil
	})
}

// ConfirmReset discards the session and its board and starts a new one
func (a *App) ConfirmReset(ctx context.Context, gameID uuid.UUID) (State, error) {
	return a.apply(ctx, gameID, func(t *table, s *Session) (bool, []outbound) {
		if !s.ConfirmReset() {
			return false, nil
		}
		return true, a.replaceSession(t, "reset_confirmed")
	})
}

// Run evicts idle games until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	interval := a.idleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("idle_timeout", a.idleTimeout).Msg("game sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("game sweeper shutting down")
			return nil
		case <-ticker.Chan():
			a.sweep()
		}
	}
}

// sweep drops every game that saw no player operation within the idle timeout
func (a *App) sweep() int {
	now := a.clock.Now()

	a.mu.Lock()
	defer a.mu.Unlock()

	evicted := 0
	for id, t := range a.games {
		t.mu.Lock()
		idle := now.Sub(t.lastSeen) >= a.idleTimeout
		if idle {
			a.scheduler.Cancel(t.session.ID())
		}
		t.mu.Unlock()

		if idle {
			delete(a.games, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Info().Int("evicted", evicted).Int("remaining", len(a.games)).Msg("evicted idle games")
	}
	return evicted
}

// replaceSession swaps in a fresh session. The caller holds t.mu.
func (a *App) replaceSession(t *table, reason string) []outbound {
	previous := t.session
	a.scheduler.Cancel(previous.ID())

	now := a.clock.Now()
	t.session = NewSession(a.generator.Generate(), now)

	log.Info().
		Str("game_id", t.id.String()).
		Str("previous_session_id", previous.ID().String()).
		Str("session_id", t.session.ID().String()).
		Str("reason", reason).
		Msg("session replaced")

	return []outbound{
		{events.TypeSessionReset, events.SessionResetPayload{PreviousSessionID: previous.ID(), Reason: reason}},
		{events.TypeSessionStarted, events.SessionStartedPayload{StartedAt: now}},
	}
}

func (a *App) lookup(gameID uuid.UUID) (*table, error) {
	a.mu.RLock()
	t, exists := a.games[gameID]
	a.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	return t, nil
}

// apply runs a player operation against the game's current session. Changed
// state is pushed to clients before the lock is released; bus events go out
// after.
func (a *App) apply(ctx context.Context, gameID uuid.UUID, fn func(t *table, s *Session) (bool, []outbound)) (State, error) {
	t, err := a.lookup(gameID)
	if err != nil {
		return State{}, err
	}

	t.mu.Lock()
	t.lastSeen = a.clock.Now()
	changed, out := fn(t, t.session)
	state := t.session.Snapshot(t.id)
	if changed {
		a.broadcaster.PublishState(state)
	}
	t.mu.Unlock()

	a.publishAll(ctx, state, out)
	return state, nil
}

// step runs a timed transition. It is dropped when the session it was
// scheduled for has been replaced.
func (a *App) step(t *table, sessionID uuid.UUID, fn func(s *Session) (bool, []outbound)) {
	t.mu.Lock()
	if t.session.ID() != sessionID {
		t.mu.Unlock()
		log.Debug().
			Str("game_id", t.id.String()).
			Str("session_id", sessionID.String()).
			Msg("dropping step for replaced session")
		return
	}
	changed, out := fn(t.session)
	state := t.session.Snapshot(t.id)
	if changed {
		a.broadcaster.PublishState(state)
	}
	t.mu.Unlock()

	a.publishAll(context.Background(), state, out)
}

func (a *App) publishAll(ctx context.Context, state State, out []outbound) {
	for _, o := range out {
		env, err := events.NewEnvelope(o.eventType, state.GameID, state.SessionID, a.clock.Now(), o.payload)
		if err != nil {
			log.Error().Err(err).Str("event_type", o.eventType).Msg("failed to build event")
			continue
		}

		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err = a.publisher.Publish(pubCtx, env)
		cancel()
		if err != nil {
			log.Error().
				Err(err).
				Str("event_type", o.eventType).
				Str("game_id", state.GameID.String()).
				Msg("failed to publish event")
		}
	}
}

func cashedOut(s *Session) outbound {
	return outbound{events.TypeCashedOut, events.CashedOutPayload{
		Wins:        s.Wins(),
		DoorsOpened: s.Board().OpenedCount(),
	}}
}

type nopBroadcaster struct{}

func (nopBroadcaster) PublishState(State) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Envelope) error { return nil }
