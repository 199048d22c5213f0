package game

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	b := mustBoard(t, 5, testRewards(42))

	tests := []struct {
		name    string
		id      int
		want    Outcome
		wantErr error
	}{
		{name: "reward door", id: 0, want: Outcome{DoorID: 0, Reward: 42}},
		{name: "death door", id: 5, want: Outcome{DoorID: 5, IsDeath: true}},
		{name: "last door", id: 29, want: Outcome{DoorID: 29, Reward: 1028}},
		{name: "negative id", id: -1, wantErr: ErrDoorOutOfRange},
		{name: "id past end", id: DoorCount, wantErr: ErrDoorOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(b, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Resolve(%d) = %+v, want %+v", tt.id, got, tt.want)
			}
		})
	}
}

func TestResolveDoesNotMutateBoard(t *testing.T) {
	b := mustBoard(t, 5, testRewards(42))
	for id := 0; id < DoorCount; id++ {
		if _, err := Resolve(b, id); err != nil {
			t.Fatalf("Resolve(%d): %v", id, err)
		}
	}
	if n := b.OpenedCount(); n != 0 {
		t.Fatalf("Resolve opened %d doors", n)
	}
}
