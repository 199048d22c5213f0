package leaderboard

import (
	"context"

	"connectrpc.com/connect"
	"github.com/mcdev12/doors/go/internal/models"
	"github.com/mcdev12/doors/go/internal/rpc"
)

// ServiceName is the connect service the leaderboard is served under
const ServiceName = "doors.leaderboard.v1.LeaderboardService"

type FetchTopRequest struct {
	Limit int `json:"limit"`
}

type FetchTopResponse struct {
	Entries []models.HighScore `json:"entries"`
}

// Service exposes the leaderboard App over connect
type Service struct {
	app *App
}

// NewService creates a new leaderboard service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// Register mounts the leaderboard procedures on mux
func (s *Service) Register(mux rpc.Mux) {
	rpc.Unary(mux, rpc.Procedure(ServiceName, "FetchTop"), s.FetchTop)
}

// FetchTop returns the best scores
func (s *Service) FetchTop(ctx context.Context, req *FetchTopRequest) (*FetchTopResponse, error) {
	if req.Limit < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errNegativeLimit)
	}
	entries, err := s.app.FetchTop(ctx, req.Limit)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	if entries == nil {
		entries = []models.HighScore{}
	}
	return &FetchTopResponse{Entries: entries}, nil
}
