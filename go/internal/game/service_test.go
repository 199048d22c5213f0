package game

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/doors/go/internal/rpc"
)

func newTestServer(t *testing.T, env *testEnv) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewService(env.app).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestServiceGameFlow(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	ctx := context.Background()

	newGame := rpc.NewClient[NewGameRequest, StateResponse](srv.Client(), srv.URL, rpc.Procedure(ServiceName, "NewGame"))
	res, err := newGame.CallUnary(ctx, connect.NewRequest(&NewGameRequest{}))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	state := res.Msg.State
	if state.Phase != PhaseRulesGate || len(state.Doors) != DoorCount {
		t.Fatalf("NewGame state = %+v", state)
	}

	dismiss := rpc.NewClient[GameRequest, StateResponse](srv.Client(), srv.URL, rpc.Procedure(ServiceName, "DismissRules"))
	res, err = dismiss.CallUnary(ctx, connect.NewRequest(&GameRequest{GameID: state.GameID}))
	if err != nil || res.Msg.State.Phase != PhaseIdle {
		t.Fatalf("DismissRules = %+v, %v", res, err)
	}

	door := env.rewardDoor(t, state.GameID)
	openDoor := rpc.NewClient[OpenDoorRequest, StateResponse](srv.Client(), srv.URL, rpc.Procedure(ServiceName, "OpenDoor"))
	res, err = openDoor.CallUnary(ctx, connect.NewRequest(&OpenDoorRequest{GameID: state.GameID, DoorID: door.ID}))
	if err != nil {
		t.Fatalf("OpenDoor: %v", err)
	}
	if res.Msg.State.Phase != PhaseZooming {
		t.Fatalf("OpenDoor phase = %s", res.Msg.State.Phase)
	}

	endGame := rpc.NewClient[GameRequest, EndGameResponse](srv.Client(), srv.URL, rpc.Procedure(ServiceName, "EndGame"))
	if _, err := endGame.CallUnary(ctx, connect.NewRequest(&GameRequest{GameID: state.GameID})); err != nil {
		t.Fatalf("EndGame: %v", err)
	}
}

func TestServiceErrorCodes(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)
	ctx := context.Background()

	getState := rpc.NewClient[GameRequest, StateResponse](srv.Client(), srv.URL, rpc.Procedure(ServiceName, "GetState"))
	_, err := getState.CallUnary(ctx, connect.NewRequest(&GameRequest{GameID: uuid.New()}))
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Fatalf("unknown game code = %v (%v), want not_found", connect.CodeOf(err), err)
	}

	gameID := env.startGame(t)
	env.app.Exit(ctx, gameID)

	submit := rpc.NewClient[SubmitScoreRequest, LeaderboardStateResponse](srv.Client(), srv.URL, rpc.Procedure(ServiceName, "SubmitScore"))
	_, err = submit.CallUnary(ctx, connect.NewRequest(&SubmitScoreRequest{GameID: gameID, Name: ""}))
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Fatalf("empty name code = %v (%v), want invalid_argument", connect.CodeOf(err), err)
	}

	env.repo.setFailing(io.ErrUnexpectedEOF)
	_, err = submit.CallUnary(ctx, connect.NewRequest(&SubmitScoreRequest{GameID: gameID, Name: "Eve"}))
	if connect.CodeOf(err) != connect.CodeUnavailable {
		t.Fatalf("store failure code = %v (%v), want unavailable", connect.CodeOf(err), err)
	}

	env.repo.setFailing(nil)
	res, err := submit.CallUnary(ctx, connect.NewRequest(&SubmitScoreRequest{GameID: gameID, Name: "Eve"}))
	if err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
	if res.Msg.State.Phase != PhaseLeaderboard || len(res.Msg.Entries) != 1 {
		t.Fatalf("SubmitScore = %+v", res.Msg)
	}
}

func TestServiceSpeaksPlainJSON(t *testing.T) {
	env := newTestEnv(t)
	srv := newTestServer(t, env)

	url := srv.URL + rpc.Procedure(ServiceName, "NewGame")
	resp, err := srv.Client().Post(url, "application/json", bytes.NewReader([]byte("{}")))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}

	var body struct {
		State struct {
			GameID string `json:"game_id"`
			Phase  string `json:"phase"`
		} `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.State.Phase != "rules_gate" {
		t.Fatalf("phase = %q, want rules_gate", body.State.Phase)
	}
	if _, err := uuid.Parse(body.State.GameID); err != nil {
		t.Fatalf("game_id %q: %v", body.State.GameID, err)
	}
}
