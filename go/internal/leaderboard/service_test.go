package leaderboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/doors/go/internal/models"
	"github.com/mcdev12/doors/go/internal/rpc"
)

func newFetchTopClient(t *testing.T, repo HighScoreRepository) (*connect.Client[FetchTopRequest, FetchTopResponse], *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	NewService(NewApp(repo, nil, Config{})).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := rpc.NewClient[FetchTopRequest, FetchTopResponse](srv.Client(), srv.URL, rpc.Procedure(ServiceName, "FetchTop"))
	return client, srv
}

func TestServiceFetchTop(t *testing.T) {
	entries := []models.HighScore{
		{ID: uuid.New(), Name: "ann", Score: 900},
		{ID: uuid.New(), Name: "bob", Score: 400},
	}
	repo := &fakeRepo{list: entries}
	client, _ := newFetchTopClient(t, repo)

	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&FetchTopRequest{Limit: 5}))
	if err != nil {
		t.Fatalf("FetchTop: %v", err)
	}
	if len(resp.Msg.Entries) != 2 || resp.Msg.Entries[0].Name != "ann" {
		t.Fatalf("entries = %+v", resp.Msg.Entries)
	}
	if repo.lastLimit != 5 {
		t.Fatalf("limit = %d, want 5", repo.lastLimit)
	}
}

func TestServiceFetchTopEmpty(t *testing.T) {
	client, _ := newFetchTopClient(t, &fakeRepo{})

	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&FetchTopRequest{}))
	if err != nil {
		t.Fatalf("FetchTop: %v", err)
	}
	if resp.Msg.Entries == nil || len(resp.Msg.Entries) != 0 {
		t.Fatalf("entries = %#v, want empty", resp.Msg.Entries)
	}
}

func TestServiceFetchTopErrors(t *testing.T) {
	tests := []struct {
		name     string
		repo     *fakeRepo
		limit    int
		wantCode connect.Code
	}{
		{name: "negative limit", repo: &fakeRepo{}, limit: -1, wantCode: connect.CodeInvalidArgument},
		{name: "store down", repo: &fakeRepo{err: errors.New("down")}, wantCode: connect.CodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newFetchTopClient(t, tt.repo)

			_, err := client.CallUnary(context.Background(), connect.NewRequest(&FetchTopRequest{Limit: tt.limit}))
			if got := connect.CodeOf(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v (err %v)", got, tt.wantCode, err)
			}
		})
	}
}
