package chat

import (
	"testing"

	"example.com/sgame-client/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(from, text string) protocol.ChatMessage {
	return protocol.ChatMessage{From: protocol.User{ID: from, Name: "user " + from}, Text: text}
}

func countLabels(lines []Line) (senders, avatars int) {
	for _, l := range lines {
		if l.ShowSender {
			senders++
		}
		if l.ShowAvatar {
			avatars++
		}
	}
	return senders, avatars
}

func TestStream_Grouping(t *testing.T) {
	cases := []struct {
		name        string
		msgs        []protocol.ChatMessage
		viewer      string
		wantSenders int
		wantAvatars int
		wantRuns    int
	}{
		{
			name:        "three from one sender",
			msgs:        []protocol.ChatMessage{msg("1", "a"), msg("1", "b"), msg("1", "c")},
			viewer:      "me",
			wantSenders: 1, wantAvatars: 1, wantRuns: 1,
		},
		{
			name:        "alternating senders",
			msgs:        []protocol.ChatMessage{msg("1", "a"), msg("2", "b"), msg("1", "c")},
			viewer:      "me",
			wantSenders: 3, wantAvatars: 3, wantRuns: 3,
		},
		{
			name:        "own messages carry no label",
			msgs:        []protocol.ChatMessage{msg("me", "a"), msg("me", "b"), msg("2", "c")},
			viewer:      "me",
			wantSenders: 1, wantAvatars: 1, wantRuns: 2,
		},
		{
			name:   "empty stream",
			viewer: "me",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStream()
			for _, m := range tc.msgs {
				s.Append(m)
			}
			senders, avatars := countLabels(s.Lines(tc.viewer))
			assert.Equal(t, tc.wantSenders, senders)
			assert.Equal(t, tc.wantAvatars, avatars)
			assert.Len(t, s.Runs(), tc.wantRuns)
		})
	}
}

func TestStream_LabelPlacement(t *testing.T) {
	s := NewStream()
	s.Append(msg("1", "a"))
	s.Append(msg("1", "b"))
	s.Append(msg("1", "c"))

	lines := s.Lines("me")
	require.Len(t, lines, 3)
	assert.True(t, lines[0].ShowSender)
	assert.False(t, lines[0].ShowAvatar)
	assert.False(t, lines[1].ShowSender)
	assert.False(t, lines[1].ShowAvatar)
	assert.False(t, lines[2].ShowSender)
	assert.True(t, lines[2].ShowAvatar)
	assert.True(t, lines[0].FirstInRun)
	assert.True(t, lines[2].LastInRun)
}

func TestStream_AppendOnly(t *testing.T) {
	s := NewStream()
	s.Append(msg("1", "a"))
	got := s.Messages()
	got[0].Text = "mutated"
	s.Append(msg("2", "b"))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"a", "b"}, []string{s.Messages()[0].Text, s.Messages()[1].Text})

	runs := s.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"a"}, runs[0].Texts)
}
