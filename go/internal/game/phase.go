package game

import "fmt"

// Phase is the single active mode of a session. Exactly one overlay or view is
// shown at a time, so every popup of the client maps to one value here.
type Phase int

const (
	PhaseRulesGate Phase = iota
	PhaseIdle
	PhaseZooming
	PhaseVideoWin
	PhaseVideoDeath
	PhaseAwaitingPostWinDecision
	PhaseAwaitingDeathDecision
	PhaseAwaitingSave
	PhaseAwaitingResetConfirm
	PhaseLeaderboard
)

var phaseNames = map[Phase]string{
	PhaseRulesGate:               "rules_gate",
	PhaseIdle:                    "idle",
	PhaseZooming:                 "zooming",
	PhaseVideoWin:                "video_win",
	PhaseVideoDeath:              "video_death",
	PhaseAwaitingPostWinDecision: "awaiting_post_win_decision",
	PhaseAwaitingDeathDecision:   "awaiting_death_decision",
	PhaseAwaitingSave:            "awaiting_save",
	PhaseAwaitingResetConfirm:    "awaiting_reset_confirm",
	PhaseLeaderboard:             "leaderboard",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// VideoPlaying reports whether the phase is one of the reveal videos.
func (p Phase) VideoPlaying() bool {
	return p == PhaseVideoWin || p == PhaseVideoDeath
}

func (p Phase) MarshalText() ([]byte, error) {
	if _, ok := phaseNames[p]; !ok {
		return nil, fmt.Errorf("unknown phase %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}
