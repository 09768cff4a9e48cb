package room

import "example.com/sgame-client/internal/protocol"

// Phase is where the game stands according to the latest snapshot. It is
// always derived, never stored.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseBoard
	PhaseQuestion
	PhaseAnswering
	PhaseFinalCategory
	PhaseFinalBetting
	PhaseFinalAnswering
	PhaseFinalReveal
	PhaseCompleted
)

var phaseNames = [...]string{
	PhaseIdle:           "idle",
	PhaseBoard:          "board",
	PhaseQuestion:       "question",
	PhaseAnswering:      "answering",
	PhaseFinalCategory:  "final-category",
	PhaseFinalBetting:   "final-betting",
	PhaseFinalAnswering: "final-answering",
	PhaseFinalReveal:    "final-reveal",
	PhaseCompleted:      "completed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

func (p Phase) IsFinal() bool { return p >= PhaseFinalCategory && p <= PhaseFinalReveal }

// derivePhase maps a snapshot onto a phase. An active final round wins over
// a leftover currentRound.
func derivePhase(r protocol.Room, answersShown bool) Phase {
	final := r.FinalRoundState
	if final.IsActive {
		switch {
		case final.Question == nil:
			return PhaseFinalCategory
		case answersShown:
			return PhaseFinalReveal
		case !allBetsPlaced(r):
			return PhaseFinalBetting
		default:
			return PhaseFinalAnswering
		}
	}

	switch {
	case r.CurrentQuestion != nil && r.AnsweringPlayer != nil:
		return PhaseAnswering
	case r.CurrentQuestion != nil:
		return PhaseQuestion
	case r.CurrentRound != nil:
		return PhaseBoard
	case final.Bets != nil:
		return PhaseCompleted
	default:
		return PhaseIdle
	}
}

// allBetsPlaced reports whether every player allowed into the final has a
// bet on record.
func allBetsPlaced(r protocol.Room) bool {
	for _, id := range r.AllowedToAnswer {
		if _, ok := betOf(r, id); !ok {
			return false
		}
	}
	return true
}

func betOf(r protocol.Room, playerID string) (int, bool) {
	for _, b := range r.FinalRoundState.Bets {
		if b.PlayerID == playerID {
			return b.Amount, true
		}
	}
	return 0, false
}
