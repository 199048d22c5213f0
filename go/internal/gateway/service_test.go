package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/doors/go/internal/game"
	"github.com/mcdev12/doors/go/internal/models"
)

type testGateway struct {
	service *Service
	server  *httptest.Server
	cancel  context.CancelFunc
	done    chan struct{}
}

func newTestGateway(t *testing.T, states map[uuid.UUID]game.State) *testGateway {
	t.Helper()

	provider := StateProviderFunc(func(ctx context.Context, gameID uuid.UUID) (game.State, error) {
		state, ok := states[gameID]
		if !ok {
			return game.State{}, game.ErrGameNotFound
		}
		return state, nil
	})

	service := NewService(DefaultConfig(), provider)
	mux := http.NewServeMux()
	service.RegisterRoutes(mux)
	server := httptest.NewServer(mux)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = service.Start(ctx)
	}()

	gw := &testGateway{service: service, server: server, cancel: cancel, done: done}
	t.Cleanup(func() {
		gw.stop()
		server.Close()
	})
	return gw
}

func (gw *testGateway) stop() {
	gw.cancel()
	<-gw.done
}

func (gw *testGateway) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(gw.server.URL, "http") + "/ws/game" + query
}

func (gw *testGateway) dial(t *testing.T, gameID uuid.UUID) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(gw.wsURL("?game_id="+gameID.String()), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) GameEvent {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	var event GameEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func decodeState(t *testing.T, event GameEvent) game.State {
	t.Helper()
	if event.Type != EventTypeStateChanged {
		t.Fatalf("event type = %s, want %s", event.Type, EventTypeStateChanged)
	}
	var state game.State
	if err := json.Unmarshal(event.Data, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestGatewaySendsInitialState(t *testing.T) {
	gameID := uuid.New()
	gw := newTestGateway(t, map[uuid.UUID]game.State{
		gameID: {GameID: gameID, Phase: game.PhaseIdle, Wins: 300},
	})

	conn := gw.dial(t, gameID)
	event := readEvent(t, conn)
	if event.GameID != gameID.String() {
		t.Fatalf("event game id = %q, want %s", event.GameID, gameID)
	}
	state := decodeState(t, event)
	if state.Phase != game.PhaseIdle || state.Wins != 300 {
		t.Fatalf("initial state = %+v", state)
	}

	stats := gw.service.GetStats()
	if stats.TotalConnections != 1 || stats.GameConnections[gameID.String()] != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestGatewayPublishStateReachesOnlyItsGame(t *testing.T) {
	gameA, gameB := uuid.New(), uuid.New()
	gw := newTestGateway(t, map[uuid.UUID]game.State{
		gameA: {GameID: gameA, Phase: game.PhaseIdle},
		gameB: {GameID: gameB, Phase: game.PhaseRulesGate},
	})

	connA := gw.dial(t, gameA)
	connB := gw.dial(t, gameB)
	readEvent(t, connA)
	readEvent(t, connB)

	gw.service.PublishState(game.State{GameID: gameA, Phase: game.PhaseZooming})
	gw.service.PublishState(game.State{GameID: gameB, Phase: game.PhaseIdle})

	if state := decodeState(t, readEvent(t, connA)); state.Phase != game.PhaseZooming {
		t.Fatalf("game A phase = %s, want zooming", state.Phase)
	}
	if state := decodeState(t, readEvent(t, connB)); state.Phase != game.PhaseIdle {
		t.Fatalf("game B phase = %s, want idle", state.Phase)
	}
}

func TestGatewayLeaderboardChangedReachesEveryone(t *testing.T) {
	gameA, gameB := uuid.New(), uuid.New()
	gw := newTestGateway(t, map[uuid.UUID]game.State{
		gameA: {GameID: gameA},
		gameB: {GameID: gameB},
	})

	connA := gw.dial(t, gameA)
	connB := gw.dial(t, gameB)
	readEvent(t, connA)
	readEvent(t, connB)

	entry := models.HighScore{ID: uuid.New(), Name: "ann", Score: 4200}
	gw.service.LeaderboardChanged(entry)

	for _, conn := range []*websocket.Conn{connA, connB} {
		event := readEvent(t, conn)
		if event.Type != EventTypeLeaderboardUpdated || event.GameID != "" {
			t.Fatalf("event = %+v", event)
		}
		var got models.HighScore
		if err := json.Unmarshal(event.Data, &got); err != nil {
			t.Fatalf("decode entry: %v", err)
		}
		if got.ID != entry.ID || got.Score != 4200 {
			t.Fatalf("entry = %+v", got)
		}
	}
}

func TestGatewayRejectsBadRequests(t *testing.T) {
	gw := newTestGateway(t, map[uuid.UUID]game.State{})

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "missing id", query: "", wantStatus: http.StatusBadRequest},
		{name: "malformed id", query: "?game_id=nope", wantStatus: http.StatusBadRequest},
		{name: "unknown game", query: "?game_id=" + uuid.NewString(), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(gw.wsURL(tt.query), nil)
			if !errors.Is(err, websocket.ErrBadHandshake) {
				t.Fatalf("dial error = %v, want bad handshake", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestGatewayStatsEndpoint(t *testing.T) {
	gameID := uuid.New()
	gw := newTestGateway(t, map[uuid.UUID]game.State{gameID: {GameID: gameID}})

	readEvent(t, gw.dial(t, gameID))
	readEvent(t, gw.dial(t, gameID))

	resp, err := http.Get(gw.server.URL + "/ws/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	defer resp.Body.Close()

	var stats ConnectionStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalConnections != 2 || stats.ActiveGames != 1 || stats.GameConnections[gameID.String()] != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestGatewayUnregistersClosedClients(t *testing.T) {
	gameID := uuid.New()
	gw := newTestGateway(t, map[uuid.UUID]game.State{gameID: {GameID: gameID}})

	conn := gw.dial(t, gameID)
	readEvent(t, conn)
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for gw.service.GetStats().TotalConnections != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("connection still registered: %+v", gw.service.GetStats())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGatewayShutdownClosesConnections(t *testing.T) {
	gameID := uuid.New()
	gw := newTestGateway(t, map[uuid.UUID]game.State{gameID: {GameID: gameID}})

	conn := gw.dial(t, gameID)
	readEvent(t, conn)

	gw.stop()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) {
		t.Fatalf("read after shutdown = %v, want close", err)
	}
	if stats := gw.service.GetStats(); stats.TotalConnections != 0 {
		t.Fatalf("stats after shutdown = %+v", stats)
	}
}

func TestNewGameEvent(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	global, err := NewGameEvent(EventTypeLeaderboardUpdated, uuid.Nil, at, map[string]int{"score": 1})
	if err != nil {
		t.Fatalf("NewGameEvent: %v", err)
	}
	if global.GameID != "" || string(global.Data) != `{"score":1}` || !global.Timestamp.Equal(at) {
		t.Fatalf("global event = %+v", global)
	}

	gameID := uuid.New()
	scoped, err := NewGameEvent(EventTypeStateChanged, gameID, at, struct{}{})
	if err != nil {
		t.Fatalf("NewGameEvent: %v", err)
	}
	if scoped.GameID != gameID.String() || scoped.ID == "" {
		t.Fatalf("scoped event = %+v", scoped)
	}
}
