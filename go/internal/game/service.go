package game

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/doors/go/internal/leaderboard"
	"github.com/mcdev12/doors/go/internal/models"
	"github.com/mcdev12/doors/go/internal/rpc"
)

// ServiceName is the connect service the game operations are served under
const ServiceName = "doors.game.v1.GameService"

// Service exposes the game App over connect
type Service struct {
	app *App
}

// NewService creates a new game service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// Register mounts every game procedure on mux
func (s *Service) Register(mux rpc.Mux) {
	rpc.Unary(mux, rpc.Procedure(ServiceName, "NewGame"), s.NewGame)
	rpc.Unary(mux, rpc.Procedure(ServiceName, "GetState"), s.stateOp(s.app.GetState))
	rpc.Unary(mux, rpc.Procedure(ServiceName, "DismissRules"), s.stateOp(s.app.DismissRules))
	rpc.Unary(mux, rpc.Procedure(ServiceName, "OpenDoor"), s.OpenDoor)
	rpc.Unary(mux, rpc.Procedure(ServiceName, "AcknowledgeWin"), s.AcknowledgeWin)
	rpc.Unary(mux, rpc.Procedure(ServiceName, "AcknowledgeDeath"), s.AcknowledgeDeath)
	rpc.Unary(mux, rpc.Procedure(ServiceName, "Exit"), s.stateOp(s.app.Exit))
	rpc.Unary(mux, rpc.Procedure(ServiceName, "SubmitScore"), s.SubmitScore)
	rpc.Unary(mux, rpc.Procedure(ServiceName, "DeclineSave"), s.stateOp(s.app.DeclineSave))
	rpc.Unary(mux, rpc.Procedure(ServiceName, "RequestReset"), s.stateOp(s.app.RequestReset))
	rpc.Unary(mux, rpc.Procedure(ServiceName, "ConfirmReset"), s.stateOp(s.app.ConfirmReset))
	rpc.Unary(mux, rpc.Procedure(ServiceName, "CancelReset"), s.stateOp(s.app.CancelReset))
	rpc.Unary(mux, rpc.Procedure(ServiceName, "ShowLeaderboard"), s.ShowLeaderboard)
	rpc.Unary(mux, rpc.Procedure(ServiceName, "CloseLeaderboard"), s.stateOp(s.app.CloseLeaderboard))
	rpc.Unary(mux, rpc.Procedure(ServiceName, "EndGame"), s.EndGame)
}

// NewGame starts a game
func (s *Service) NewGame(ctx context.Context, req *NewGameRequest) (*StateResponse, error) {
	state, err := s.app.NewGame(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return &StateResponse{State: state}, nil
}

// OpenDoor selects a door
func (s *Service) OpenDoor(ctx context.Context, req *OpenDoorRequest) (*StateResponse, error) {
	state, err := s.app.OpenDoor(ctx, req.GameID, req.DoorID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return &StateResponse{State: state}, nil
}

// AcknowledgeWin banks a revealed reward
func (s *Service) AcknowledgeWin(ctx context.Context, req *AcknowledgeWinRequest) (*StateResponse, error) {
	state, err := s.app.AcknowledgeWin(ctx, req.GameID, req.Continue)
	if err != nil {
		return nil, toConnectError(err)
	}
	return &StateResponse{State: state}, nil
}

// AcknowledgeDeath closes the death popup
func (s *Service) AcknowledgeDeath(ctx context.Context, req *AcknowledgeDeathRequest) (*StateResponse, error) {
	state, err := s.app.AcknowledgeDeath(ctx, req.GameID, req.Restart)
	if err != nil {
		return nil, toConnectError(err)
	}
	return &StateResponse{State: state}, nil
}

// SubmitScore saves the final winnings under the given name
func (s *Service) SubmitScore(ctx context.Context, req *SubmitScoreRequest) (*LeaderboardStateResponse, error) {
	state, entries, err := s.app.SubmitScore(ctx, req.GameID, req.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return &LeaderboardStateResponse{State: state, Entries: nonNil(entries)}, nil
}

// ShowLeaderboard opens the leaderboard view
func (s *Service) ShowLeaderboard(ctx context.Context, req *GameRequest) (*LeaderboardStateResponse, error) {
	state, entries, err := s.app.ShowLeaderboard(ctx, req.GameID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return &LeaderboardStateResponse{State: state, Entries: nonNil(entries)}, nil
}

// EndGame discards a game
func (s *Service) EndGame(ctx context.Context, req *GameRequest) (*EndGameResponse, error) {
	if err := s.app.EndGame(ctx, req.GameID); err != nil {
		return nil, toConnectError(err)
	}
	return &EndGameResponse{}, nil
}

// stateOp adapts an App operation that only needs the game id
func (s *Service) stateOp(op func(context.Context, uuid.UUID) (State, error)) func(context.Context, *GameRequest) (*StateResponse, error) {
	return func(ctx context.Context, req *GameRequest) (*StateResponse, error) {
		state, err := op(ctx, req.GameID)
		if err != nil {
			return nil, toConnectError(err)
		}
		return &StateResponse{State: state}, nil
	}
}

// toConnectError maps app errors to connect codes
func toConnectError(err error) error {
	var submitErr *leaderboard.SubmitError
	switch {
	case errors.Is(err, ErrGameNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrSubmitInFlight):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, leaderboard.ErrEmptyName),
		errors.Is(err, leaderboard.ErrNameTooLong),
		errors.Is(err, leaderboard.ErrNegativeScore):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &submitErr):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func nonNil(entries []models.HighScore) []models.HighScore {
	if entries == nil {
		return []models.HighScore{}
	}
	return entries
}
