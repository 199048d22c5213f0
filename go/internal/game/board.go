package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

const (
	// DoorCount is the number of doors on every board.
	DoorCount = 30
	// RewardCount is the number of doors hiding a reward.
	RewardCount = DoorCount - 1
	// MinReward and MaxReward bound the reward behind a door, inclusive.
	MinReward = 1
	MaxReward = 100_000
)

var ErrDoorOutOfRange = errors.New("door id out of range")

// Door is one cell of a board. Reward is zero for the death door.
type Door struct {
	ID      int  `json:"id"`
	Opened  bool `json:"opened"`
	IsDeath bool `json:"is_death"`
	Reward  int  `json:"reward,omitempty"`
}

// Board is the fixed layout of a single session. It is a value type: copying
// a Board copies every door.
type Board struct {
	doors [DoorCount]Door
}

// NewBoard builds a board from an explicit layout. Rewards are assigned in
// door order to every slot except deathIndex.
func NewBoard(deathIndex int, rewards []int) (Board, error) {
	var b Board
	if deathIndex < 0 || deathIndex >= DoorCount {
		return b, fmt.Errorf("death index %d: %w", deathIndex, ErrDoorOutOfRange)
	}
	if len(rewards) != RewardCount {
		return b, fmt.Errorf("expected %d rewards, got %d", RewardCount, len(rewards))
	}

	next := 0
	for i := range b.doors {
		if i == deathIndex {
			b.doors[i] = Door{ID: i, IsDeath: true}
			continue
		}
		b.doors[i] = Door{ID: i, Reward: rewards[next]}
		next++
	}

	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Validate checks the board invariant: one death door and pairwise distinct
// rewards within [MinReward, MaxReward] on every other door.
func (b Board) Validate() error {
	deaths := 0
	seen := make(map[int]struct{}, RewardCount)
	for i, d := range b.doors {
		if d.ID != i {
			return fmt.Errorf("door at slot %d has id %d", i, d.ID)
		}
		if d.IsDeath {
			deaths++
			if d.Reward != 0 {
				return fmt.Errorf("death door %d carries reward %d", i, d.Reward)
			}
			continue
		}
		if d.Reward < MinReward || d.Reward > MaxReward {
			return fmt.Errorf("door %d reward %d outside [%d, %d]", i, d.Reward, MinReward, MaxReward)
		}
		if _, dup := seen[d.Reward]; dup {
			return fmt.Errorf("door %d reward %d is not unique", i, d.Reward)
		}
		seen[d.Reward] = struct{}{}
	}
	if deaths != 1 {
		return fmt.Errorf("board has %d death doors, want 1", deaths)
	}
	return nil
}

// Door returns the door with the given id.
func (b Board) Door(id int) (Door, bool) {
	if id < 0 || id >= DoorCount {
		return Door{}, false
	}
	return b.doors[id], true
}

// Doors returns a copy of every door in id order.
func (b Board) Doors() []Door {
	out := make([]Door, DoorCount)
	copy(out, b.doors[:])
	return out
}

// DeathIndex returns the id of the death door.
func (b Board) DeathIndex() int {
	for i, d := range b.doors {
		if d.IsDeath {
			return i
		}
	}
	return -1
}

// OpenedCount returns how many doors have been opened.
func (b Board) OpenedCount() int {
	n := 0
	for _, d := range b.doors {
		if d.Opened {
			n++
		}
	}
	return n
}

func (b *Board) open(id int) bool {
	if id < 0 || id >= DoorCount || b.doors[id].Opened {
		return false
	}
	b.doors[id].Opened = true
	return true
}

// Generator produces random boards. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator drawing from src. A nil src is seeded from
// the runtime's random source.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rng: rand.New(src)}
}

// Generate returns a fresh board: the death door is uniform over all slots and
// the rewards are a uniform sample without replacement from the reward range.
func (g *Generator) Generate() Board {
	g.mu.Lock()
	deathIndex := g.rng.IntN(DoorCount)
	rewards := sampleDistinct(g.rng, RewardCount, MinReward, MaxReward)
	g.mu.Unlock()

	var b Board
	next := 0
	for i := range b.doors {
		if i == deathIndex {
			b.doors[i] = Door{ID: i, IsDeath: true}
			continue
		}
		b.doors[i] = Door{ID: i, Reward: rewards[next]}
		next++
	}
	return b
}

// sampleDistinct draws k distinct integers from [lo, hi] with a partial
// Fisher-Yates shuffle. Only the displaced positions are stored, so the
// range itself is never materialised.
func sampleDistinct(rng *rand.Rand, k, lo, hi int) []int {
	n := hi - lo + 1
	if k > n {
		k = n
	}
	displaced := make(map[int]int, 2*k)
	at := func(i int) int {
		if v, ok := displaced[i]; ok {
			return v
		}
		return i
	}

	out := make([]int, k)
	for i := 0; i < k; i++ {
		j := i + rng.IntN(n-i)
		vi, vj := at(i), at(j)
		displaced[j] = vi
		displaced[i] = vj
		out[i] = vj + lo
	}
	return out
}
