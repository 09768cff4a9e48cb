package room

import "example.com/sgame-client/internal/protocol"

// Panel is the main area of the room screen. Exactly one is shown per
// snapshot.
type Panel int

const (
	PanelBoard Panel = iota
	PanelQuestion
	PanelFinal
)

func (m *Machine) Panel() Panel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case m.room.FinalRoundState.IsActive:
		return PanelFinal
	case m.room.CurrentQuestion != nil:
		return PanelQuestion
	default:
		return PanelBoard
	}
}

// QuestionView is either HiddenQuestion or RevealedQuestion. Which one is
// decided by the viewer's role, since both arrive in the same shape.
type QuestionView interface {
	questionView()
}

type HiddenQuestion struct {
	Index      int
	Value      int
	Text       string
	Attachment *protocol.Attachment
}

type RevealedQuestion struct {
	HiddenQuestion
	Answers []string
	Comment *string
}

func (HiddenQuestion) questionView()   {}
func (RevealedQuestion) questionView() {}

// CurrentQuestion returns nil when no question is shown.
func (m *Machine) CurrentQuestion() QuestionView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := m.room.CurrentQuestion
	if q == nil {
		return nil
	}
	hidden := HiddenQuestion{Index: q.Index, Value: q.Value, Text: q.Text, Attachment: q.Attachment}
	if !m.room.IsHost(m.viewer.ID) {
		return hidden
	}
	return RevealedQuestion{HiddenQuestion: hidden, Answers: q.Answers, Comment: q.Comment}
}

type FinalQuestionView interface {
	finalQuestionView()
}

type HiddenFinalQuestion struct {
	Category   string
	Text       string
	Attachment *protocol.Attachment
}

type RevealedFinalQuestion struct {
	HiddenFinalQuestion
	Answers []string
	Comment *string
}

func (HiddenFinalQuestion) finalQuestionView()   {}
func (RevealedFinalQuestion) finalQuestionView() {}

func (m *Machine) FinalQuestion() FinalQuestionView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := m.room.FinalRoundState.Question
	if q == nil {
		return nil
	}
	hidden := HiddenFinalQuestion{Category: q.Category, Text: q.Text, Attachment: q.Attachment}
	if !m.room.IsHost(m.viewer.ID) {
		return hidden
	}
	return RevealedFinalQuestion{HiddenFinalQuestion: hidden, Answers: q.Answers, Comment: q.Comment}
}

// Cell is one board slot. Empty marks a slot with no question in that
// category at that row.
type Cell struct {
	Category  string
	Index     int
	Value     int
	Played    bool
	Clickable bool
	Empty     bool
}

func onBoard(index int) bool { return index >= 0 && index < protocol.MaxBoardRows }

// Board lays availableQuestions out as rows by question index and columns by
// category in server order.
type Board struct {
	Categories []string
	Rows       [][]Cell
}

func (m *Machine) Board() Board {
	m.mu.RLock()
	defer m.mu.RUnlock()

	aq := m.room.AvailableQuestions
	b := Board{Categories: aq.Keys()}

	rows := 0
	for _, cat := range b.Categories {
		qs, _ := aq.Get(cat)
		for _, q := range qs {
			if onBoard(q.Index) {
				rows = max(rows, q.Index+1)
			}
		}
	}

	canChoose := m.phase() == PhaseBoard && !m.room.IsPaused && m.isCurrentPlayer()
	b.Rows = make([][]Cell, rows)
	for i := range b.Rows {
		row := make([]Cell, len(b.Categories))
		for c, cat := range b.Categories {
			row[c] = Cell{Category: cat, Index: i, Empty: true}
		}
		b.Rows[i] = row
	}
	for c, cat := range b.Categories {
		qs, _ := aq.Get(cat)
		for _, q := range qs {
			if !onBoard(q.Index) {
				continue
			}
			b.Rows[q.Index][c] = Cell{
				Category:  cat,
				Index:     q.Index,
				Value:     q.Value,
				Played:    q.HasBeenPlayed,
				Clickable: canChoose && !q.HasBeenPlayed,
			}
		}
	}
	return b
}

// FinalCategory is one option of the final round category pick. Removed
// categories stay listed so the column layout does not shift.
type FinalCategory struct {
	Name      string
	Available bool
	Clickable bool
}

func (m *Machine) FinalCategories() []FinalCategory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	aq := m.room.FinalRoundState.AvailableQuestions
	canPick := m.phase() == PhaseFinalCategory && !m.room.IsPaused && m.isCurrentPlayer()
	out := make([]FinalCategory, 0, aq.Len())
	for _, name := range aq.Keys() {
		available, _ := aq.Get(name)
		out = append(out, FinalCategory{Name: name, Available: available, Clickable: canPick && available})
	}
	return out
}

// Control is the host's start/pause button.
type Control struct {
	Visible bool
	Label   string
	Action  protocol.Event
}

func (m *Machine) Control() Control {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.room.IsHost(m.viewer.ID) {
		return Control{}
	}
	switch phase := m.phase(); {
	case phase == PhaseIdle:
		return Control{Visible: true, Label: "Start", Action: protocol.EventStart}
	case phase == PhaseCompleted:
		return Control{}
	case m.room.IsPaused:
		return Control{Visible: true, Label: "Continue", Action: protocol.EventTogglePause}
	default:
		return Control{Visible: true, Label: "Pause", Action: protocol.EventTogglePause}
	}
}

// PlayerView decorates a player with what the current snapshot says about
// them.
type PlayerView struct {
	protocol.Player
	Choosing  bool
	Answering bool
	CanAnswer bool
	Bet       *int
	IsViewer  bool
}

func (m *Machine) Players() []PlayerView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	phase := m.phase()
	out := make([]PlayerView, 0, len(m.room.Players))
	for _, p := range m.room.Players {
		v := PlayerView{Player: p, IsViewer: p.ID == m.viewer.ID}
		if cp := m.room.CurrentPlayer; cp != nil && *cp == p.ID {
			v.Choosing = phase == PhaseBoard || phase == PhaseFinalCategory
		}
		if ap := m.room.AnsweringPlayer; ap != nil && *ap == p.ID {
			v.Answering = true
		}
		for _, id := range m.room.AllowedToAnswer {
			if id == p.ID {
				v.CanAnswer = true
			}
		}
		if amount, ok := betOf(m.room, p.ID); ok {
			v.Bet = &amount
		}
		out = append(out, v)
	}
	return out
}
