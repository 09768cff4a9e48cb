// Package room models the live game of one joined room. State only changes
// when the server sends a snapshot; the client emits intents and waits for
// the next snapshot to see their effect.
package room

import (
	"slices"
	"sync"
	"time"

	"example.com/sgame-client/internal/protocol"
)

// Sender writes an outbound envelope to the room channel.
type Sender interface {
	Send(protocol.Envelope) error
}

// Machine holds the latest Room snapshot and the two side facts the server
// pushes between snapshots: the answer deadline and the last correct
// answers. Snapshots are written by the channel reader and read by the UI.
type Machine struct {
	viewer protocol.User
	sender Sender

	mu          sync.RWMutex
	room        protocol.Room
	deadline    *time.Time
	lastAnswers []string
}

func New(viewer protocol.User, initial protocol.Room, sender Sender) *Machine {
	m := &Machine{viewer: viewer, sender: sender}
	m.Apply(initial)
	return m
}

func (m *Machine) Viewer() protocol.User { return m.viewer }

// Apply replaces the snapshot wholesale. When the shown question changes the
// deadline is dropped, and a newly shown question clears the previous
// answers.
func (m *Machine) Apply(r protocol.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.room
	m.room = r

	if !sameQuestion(prev.CurrentQuestion, r.CurrentQuestion) ||
		!sameFinalQuestion(prev.FinalRoundState.Question, r.FinalRoundState.Question) {
		m.deadline = nil
		if r.CurrentQuestion != nil || r.FinalRoundState.Question != nil {
			m.lastAnswers = nil
		}
	}
	// a zero deadlineAt is how the server says no timer is running
	switch {
	case r.DeadlineAt == nil:
	case r.DeadlineAt.IsZero():
		m.deadline = nil
	default:
		at := *r.DeadlineAt
		m.deadline = &at
	}
}

func sameQuestion(a, b *protocol.Question) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Index == b.Index && a.Value == b.Value && a.Text == b.Text
}

func sameFinalQuestion(a, b *protocol.FinalQuestion) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Category == b.Category && a.Text == b.Text
}

func (m *Machine) SetDeadline(at time.Time) {
	m.mu.Lock()
	m.deadline = &at
	m.mu.Unlock()
}

func (m *Machine) Deadline() (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.deadline == nil {
		return time.Time{}, false
	}
	return *m.deadline, true
}

func (m *Machine) SetAnswers(answers []string) {
	m.mu.Lock()
	m.lastAnswers = slices.Clone(answers)
	if m.lastAnswers == nil {
		m.lastAnswers = []string{}
	}
	m.mu.Unlock()
}

// LastAnswers are the correct answers of the question that just ended.
func (m *Machine) LastAnswers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.lastAnswers)
}

// Room returns the current snapshot. Callers must treat it as read-only.
func (m *Machine) Room() protocol.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.room
}

func (m *Machine) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase()
}

func (m *Machine) phase() Phase {
	return derivePhase(m.room, m.lastAnswers != nil)
}

// IsPaused is an overlay on top of Phase; the phase is kept while paused.
func (m *Machine) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.room.IsPaused
}

func (m *Machine) IsHost() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.room.IsHost(m.viewer.ID)
}

// IsPrivileged reports whether question payloads for this viewer carry
// answers and comment. Only the host gets them.
func (m *Machine) IsPrivileged() bool { return m.IsHost() }

func (m *Machine) isCurrentPlayer() bool {
	cp := m.room.CurrentPlayer
	return cp != nil && *cp == m.viewer.ID
}

func (m *Machine) isAllowedToAnswer() bool {
	return slices.Contains(m.room.AllowedToAnswer, m.viewer.ID)
}
