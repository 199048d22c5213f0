package game

import "fmt"

// Outcome is the result of opening a door. Reward is zero when IsDeath is set.
type Outcome struct {
	DoorID  int  `json:"door_id"`
	IsDeath bool `json:"is_death"`
	Reward  int  `json:"reward,omitempty"`
}

// Resolve reports what is behind door id on board b. It has no side effects.
func Resolve(b Board, id int) (Outcome, error) {
	d, ok := b.Door(id)
	if !ok {
		return Outcome{}, fmt.Errorf("resolve door %d: %w", id, ErrDoorOutOfRange)
	}
	if d.IsDeath {
		return Outcome{DoorID: id, IsDeath: true}, nil
	}
	return Outcome{DoorID: id, Reward: d.Reward}, nil
}
