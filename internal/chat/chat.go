// Package chat holds the append-only message stream of one context.
package chat

import (
	"sync"

	"example.com/sgame-client/internal/protocol"
)

// Stream is the ordered chat log. Messages are only ever appended; the sender
// sees its own message when the server broadcasts it back.
type Stream struct {
	mu   sync.RWMutex
	msgs []protocol.ChatMessage
}

func NewStream() *Stream { return &Stream{} }

func (s *Stream) Append(m protocol.ChatMessage) {
	s.mu.Lock()
	s.msgs = append(s.msgs, m)
	s.mu.Unlock()
}

func (s *Stream) Messages() []protocol.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]protocol.ChatMessage(nil), s.msgs...)
}

func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msgs)
}

// Line is one message prepared for display. Consecutive messages from the
// same sender form a run: the sender label goes on the first line of the
// run and the avatar on the last. Neither is shown for the viewer's own
// messages.
type Line struct {
	Message    protocol.ChatMessage
	Own        bool
	FirstInRun bool
	LastInRun  bool
	ShowSender bool
	ShowAvatar bool
}

// Lines groups the stream as seen by viewerID.
func (s *Stream) Lines(viewerID string) []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]Line, len(s.msgs))
	for i, m := range s.msgs {
		first := i == 0 || s.msgs[i-1].From.ID != m.From.ID
		last := i == len(s.msgs)-1 || s.msgs[i+1].From.ID != m.From.ID
		own := m.From.ID == viewerID
		lines[i] = Line{
			Message:    m,
			Own:        own,
			FirstInRun: first,
			LastInRun:  last,
			ShowSender: first && !own,
			ShowAvatar: last && !own,
		}
	}
	return lines
}

// Run is a maximal sequence of consecutive messages from one sender.
type Run struct {
	From  protocol.User
	Texts []string
}

func (s *Stream) Runs() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []Run
	for _, m := range s.msgs {
		if n := len(runs); n > 0 && runs[n-1].From.ID == m.From.ID {
			runs[n-1].Texts = append(runs[n-1].Texts, m.Text)
			continue
		}
		runs = append(runs, Run{From: m.From, Texts: []string{m.Text}})
	}
	return runs
}
