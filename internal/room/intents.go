package room

import (
	"errors"
	"strings"

	"example.com/sgame-client/internal/protocol"
)

// Reasons an intent is suppressed locally. No frame is sent in any of these
// cases. The server still validates everything it receives.
var (
	ErrNotHost          = errors.New("only the host can do that")
	ErrNotCurrentPlayer = errors.New("not your turn")
	ErrNotAllowed       = errors.New("not allowed to answer")
	ErrPaused           = errors.New("game is paused")
	ErrWrongPhase       = errors.New("not possible in this phase")
	ErrNoSuchQuestion   = errors.New("no such question")
	ErrAlreadyPlayed    = errors.New("question already played")
	ErrAlreadyBet       = errors.New("bet already placed")
	ErrInvalidBet       = errors.New("bet must be positive and not above your score")
	ErrEmptyAnswer      = errors.New("answer is empty")
)

// check runs fn under the read lock and sends env only when it returns nil.
func (m *Machine) check(fn func() error, env protocol.Envelope) error {
	m.mu.RLock()
	err := fn()
	m.mu.RUnlock()
	if err != nil {
		return err
	}
	return m.sender.Send(env)
}

func (m *Machine) requireHost() error {
	if !m.room.IsHost(m.viewer.ID) {
		return ErrNotHost
	}
	return nil
}

func (m *Machine) Start() error {
	return m.check(func() error {
		if err := m.requireHost(); err != nil {
			return err
		}
		if m.phase() != PhaseIdle {
			return ErrWrongPhase
		}
		return nil
	}, protocol.Start())
}

func (m *Machine) TogglePause() error {
	return m.check(func() error {
		if err := m.requireHost(); err != nil {
			return err
		}
		if p := m.phase(); p == PhaseIdle || p == PhaseCompleted {
			return ErrWrongPhase
		}
		return nil
	}, protocol.TogglePause())
}

// ChooseQuestion asks to open the cell at index in category. Only the
// current player may choose, only from the board, and only unplayed cells.
func (m *Machine) ChooseQuestion(category string, index int) error {
	return m.check(func() error {
		if m.room.IsPaused {
			return ErrPaused
		}
		if m.phase() != PhaseBoard {
			return ErrWrongPhase
		}
		if !m.isCurrentPlayer() {
			return ErrNotCurrentPlayer
		}
		qs, ok := m.room.AvailableQuestions.Get(category)
		if !ok {
			return ErrNoSuchQuestion
		}
		for _, q := range qs {
			if q.Index != index {
				continue
			}
			if q.HasBeenPlayed {
				return ErrAlreadyPlayed
			}
			return nil
		}
		return ErrNoSuchQuestion
	}, protocol.ChooseQuestion(category, index))
}

// Answer buzzes in for the shown question.
func (m *Machine) Answer() error {
	return m.check(func() error {
		if m.room.IsPaused {
			return ErrPaused
		}
		if m.phase() != PhaseQuestion {
			return ErrWrongPhase
		}
		if !m.isAllowedToAnswer() {
			return ErrNotAllowed
		}
		return nil
	}, protocol.Answer())
}

// Judge is the host's verdict on the answering player.
func (m *Machine) Judge(correct bool) error {
	return m.check(func() error {
		if err := m.requireHost(); err != nil {
			return err
		}
		if m.room.IsPaused {
			return ErrPaused
		}
		if m.phase() != PhaseAnswering {
			return ErrWrongPhase
		}
		return nil
	}, protocol.Validation(correct))
}

// PickFinalCategory removes category from the final round board.
func (m *Machine) PickFinalCategory(category string) error {
	return m.check(func() error {
		if m.room.IsPaused {
			return ErrPaused
		}
		if m.phase() != PhaseFinalCategory {
			return ErrWrongPhase
		}
		if !m.isCurrentPlayer() {
			return ErrNotCurrentPlayer
		}
		if available, ok := m.room.FinalRoundState.AvailableQuestions.Get(category); !ok || !available {
			return ErrNoSuchQuestion
		}
		return nil
	}, protocol.FinalCategory(category))
}

func (m *Machine) Bet(amount int) error {
	return m.check(func() error {
		if m.room.IsPaused {
			return ErrPaused
		}
		if m.phase() != PhaseFinalBetting {
			return ErrWrongPhase
		}
		if !m.isAllowedToAnswer() {
			return ErrNotAllowed
		}
		if _, ok := betOf(m.room, m.viewer.ID); ok {
			return ErrAlreadyBet
		}
		p, _ := m.room.Player(m.viewer.ID)
		if amount <= 0 || amount > p.Score {
			return ErrInvalidBet
		}
		return nil
	}, protocol.PlaceBet(amount))
}

func (m *Machine) FinalAnswer(text string) error {
	text = strings.TrimSpace(text)
	return m.check(func() error {
		if m.room.IsPaused {
			return ErrPaused
		}
		if m.phase() != PhaseFinalAnswering {
			return ErrWrongPhase
		}
		if !m.isAllowedToAnswer() {
			return ErrNotAllowed
		}
		if text == "" {
			return ErrEmptyAnswer
		}
		return nil
	}, protocol.FinalAnswer(text))
}
