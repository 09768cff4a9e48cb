package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"example.com/sgame-client/internal/chat"
	"example.com/sgame-client/internal/protocol"
	"example.com/sgame-client/internal/room"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// RenderLobby prints the visible rooms.
func RenderLobby(w io.Writer, rooms []protocol.LobbyRoom, search string) {
	if search = strings.TrimSpace(search); search != "" {
		fmt.Fprintf(w, "rooms matching %q\n", search)
	} else {
		fmt.Fprintln(w, "rooms")
	}
	if len(rooms) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}

	tw := table(w)
	fmt.Fprintln(tw, "  ID\tNAME\tPACK\tPLAYERS\tTYPE\tSTATUS\tHOST")
	for _, r := range rooms {
		players := fmt.Sprintf("%d/%d", len(r.Players), r.MaxPlayers)
		if r.IsFull() {
			players += " full"
		}
		host := "-"
		if r.Host != nil {
			host = r.Host.Name
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.PackPreview.Name, players, r.Type, r.Status, host)
	}
	_ = tw.Flush()
}

// RenderRoom prints the whole room screen as the viewer sees it.
func RenderRoom(w io.Writer, m *room.Machine, now time.Time) {
	r := m.Room()

	header := r.Name
	if r.PackPreview.Name != "" {
		header += " | " + r.PackPreview.Name
	}
	if r.CurrentRound != nil && !r.FinalRoundState.IsActive {
		header += " | round " + *r.CurrentRound
	}
	if r.FinalRoundState.IsActive {
		header += " | final round"
	}
	if m.IsPaused() {
		header += " | PAUSED"
	}
	fmt.Fprintln(w, header)

	renderPlayers(w, r, m.Players())

	switch m.Panel() {
	case room.PanelBoard:
		renderBoard(w, m.Board())
	case room.PanelQuestion:
		renderQuestion(w, m.CurrentQuestion(), r)
	case room.PanelFinal:
		renderFinal(w, m)
	}

	if answers := m.LastAnswers(); len(answers) > 0 {
		fmt.Fprintf(w, "correct answers: %s\n", strings.Join(answers, ", "))
	}
	if at, ok := m.Deadline(); ok && !m.IsPaused() {
		left := at.Sub(now).Round(time.Second)
		if left < 0 {
			left = 0
		}
		fmt.Fprintf(w, "time left: %s\n", left)
	}
	if c := m.Control(); c.Visible {
		fmt.Fprintf(w, "host control: %s (/%s)\n", c.Label, controlCommand(c))
	}
}

func controlCommand(c room.Control) string {
	if c.Action == protocol.EventStart {
		return "start"
	}
	return "pause"
}

func renderPlayers(w io.Writer, r protocol.Room, players []room.PlayerView) {
	parts := make([]string, 0, len(players)+1)
	if r.Host != nil {
		h := "host " + r.Host.Name
		if !r.Host.IsConnected {
			h += " (away)"
		}
		parts = append(parts, h)
	}
	for _, p := range players {
		s := p.Name + " " + strconv.Itoa(p.Score)
		if p.IsViewer {
			s = "*" + s
		}
		switch {
		case p.Answering:
			s += " answering"
		case p.Choosing:
			s += " choosing"
		}
		if p.Bet != nil {
			s += fmt.Sprintf(" bet %d", *p.Bet)
		}
		if !p.IsConnected {
			s += " (away)"
		}
		parts = append(parts, s)
	}
	fmt.Fprintln(w, strings.Join(parts, " | "))
}

// renderBoard prints played cells blank and marks cells the viewer may open
// with brackets.
func renderBoard(w io.Writer, b room.Board) {
	if len(b.Categories) == 0 {
		fmt.Fprintln(w, "waiting for the game to start")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, strings.Join(b.Categories, "\t"))
	for _, row := range b.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = cellText(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}

func cellText(c room.Cell) string {
	switch {
	case c.Empty || c.Played:
		return "."
	case c.Clickable:
		return "[" + strconv.Itoa(c.Value) + "]"
	default:
		return strconv.Itoa(c.Value)
	}
}

func renderQuestion(w io.Writer, q room.QuestionView, r protocol.Room) {
	switch q := q.(type) {
	case room.HiddenQuestion:
		writeQuestion(w, q)
	case room.RevealedQuestion:
		writeQuestion(w, q.HiddenQuestion)
		fmt.Fprintf(w, "answers: %s\n", strings.Join(q.Answers, ", "))
		if q.Comment != nil && *q.Comment != "" {
			fmt.Fprintf(w, "comment: %s\n", *q.Comment)
		}
	}
	if ap := r.AnsweringPlayer; ap != nil {
		if p, ok := r.Player(*ap); ok {
			fmt.Fprintf(w, "%s is answering\n", p.Name)
		}
	}
}

func writeQuestion(w io.Writer, q room.HiddenQuestion) {
	fmt.Fprintf(w, "for %d: %s\n", q.Value, q.Text)
	writeAttachment(w, q.Attachment)
}

func writeAttachment(w io.Writer, a *protocol.Attachment) {
	if a != nil {
		fmt.Fprintf(w, "[%s] %s\n", a.MediaType, a.ContentURL)
	}
}

func renderFinal(w io.Writer, m *room.Machine) {
	phase := m.Phase()
	if phase == room.PhaseFinalCategory {
		fmt.Fprintln(w, "final round: remove categories until one is left")
		for _, c := range m.FinalCategories() {
			switch {
			case !c.Available:
				fmt.Fprintf(w, "  - %s (removed)\n", c.Name)
			case c.Clickable:
				fmt.Fprintf(w, "  [%s]\n", c.Name)
			default:
				fmt.Fprintf(w, "  %s\n", c.Name)
			}
		}
		return
	}

	switch q := m.FinalQuestion().(type) {
	case room.HiddenFinalQuestion:
		fmt.Fprintf(w, "final: %s\n%s\n", q.Category, q.Text)
		writeAttachment(w, q.Attachment)
	case room.RevealedFinalQuestion:
		fmt.Fprintf(w, "final: %s\n%s\n", q.Category, q.Text)
		writeAttachment(w, q.Attachment)
		fmt.Fprintf(w, "answers: %s\n", strings.Join(q.Answers, ", "))
	}
	switch phase {
	case room.PhaseFinalBetting:
		fmt.Fprintln(w, "place your bets (/bet <amount>)")
	case room.PhaseFinalAnswering:
		fmt.Fprintln(w, "answer now (/final <text>)")
	}
}

// RenderChat prints the stream grouped into runs.
func RenderChat(w io.Writer, lines []chat.Line) {
	for _, l := range lines {
		if l.ShowSender {
			fmt.Fprintf(w, "%s:\n", clean(l.Message.From.Name))
		}
		prefix := "  "
		if l.Own {
			prefix = "  > "
		}
		text := prefix + clean(l.Message.Text)
		if l.ShowAvatar {
			text += " (" + avatar(l.Message.From) + ")"
		}
		fmt.Fprintln(w, text)
	}
}

func avatar(u protocol.User) string {
	if u.Avatar != nil && *u.Avatar != "" {
		return *u.Avatar
	}
	return u.Initials()
}
