package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"example.com/sgame-client/internal/room"
	"example.com/sgame-client/internal/session"
)

// Screen serialises output from the channel reader and the input loop. It
// implements session.Listener by redrawing on every change.
type Screen struct {
	mu     sync.Mutex
	out    io.Writer
	redraw func(io.Writer)
}

func NewScreen(out io.Writer) *Screen { return &Screen{out: out} }

func (s *Screen) setRedraw(fn func(io.Writer)) {
	s.mu.Lock()
	s.redraw = fn
	s.mu.Unlock()
}

func (s *Screen) Changed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redraw != nil {
		fmt.Fprintln(s.out)
		s.redraw(s.out)
	}
}

func (s *Screen) Notify(n session.Notification) {
	switch n.Kind {
	case session.NotifyDisconnected:
		s.Printf("x %s\n", n.Message)
	default:
		s.Printf("! %s\n", n.Message)
	}
}

func (s *Screen) Printf(format string, args ...any) {
	s.mu.Lock()
	fmt.Fprintf(s.out, format, args...)
	s.mu.Unlock()
}

// Lines feeds r line by line until EOF. The channel is closed at EOF.
func Lines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

// Join is the room picked in the lobby.
type Join struct {
	RoomID   string
	Password string
}

// RunLobby handles lobby input until the user joins a room, leaves, input
// ends or ctx is done. A zero Join means no room was picked.
func RunLobby(ctx context.Context, lines <-chan string, sc *Screen, s *session.Lobby) (Join, error) {
	redraw := func(w io.Writer) {
		RenderLobby(w, s.Rooms().Visible(), s.Rooms().Search())
		RenderChat(w, s.Chat().Lines(s.Viewer().ID))
	}
	sc.setRedraw(redraw)
	defer sc.setRedraw(nil)
	sc.Changed()

	for {
		line, err := next(ctx, lines)
		if errors.Is(err, errInputClosed) {
			return Join{}, nil
		}
		if err != nil {
			return Join{}, err
		}
		if line == "" {
			continue
		}
		cmd, err := Parse(line)
		if err != nil {
			sc.Printf("! %v\n", err)
			continue
		}
		switch cmd.Kind {
		case CmdChat:
			err = s.SendChat(cmd.Text)
		case CmdSearch:
			s.SetSearch(cmd.Text)
		case CmdJoin:
			return Join{RoomID: cmd.RoomID, Password: cmd.Password}, nil
		case CmdLeave:
			return Join{}, nil
		case CmdHelp:
			sc.Printf("%s\n", help)
		default:
			err = errors.New("join a room first")
		}
		if err != nil {
			sc.Printf("! %v\n", err)
		}
	}
}

// RunRoom handles room input until the user leaves, input ends or ctx is
// done.
func RunRoom(ctx context.Context, lines <-chan string, sc *Screen, s *session.Room) error {
	redraw := func(w io.Writer) {
		RenderRoom(w, s.Game(), time.Now())
		RenderChat(w, s.Chat().Lines(s.Viewer().ID))
	}
	sc.setRedraw(redraw)
	defer sc.setRedraw(nil)
	sc.Changed()

	for {
		line, err := next(ctx, lines)
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		cmd, err := Parse(line)
		if err != nil {
			sc.Printf("! %v\n", err)
			continue
		}
		if cmd.Kind == CmdLeave {
			return nil
		}
		if err := execRoom(s, sc, cmd); err != nil {
			sc.Printf("! %v\n", err)
		}
	}
}

func execRoom(s *session.Room, sc *Screen, cmd Command) error {
	g := s.Game()
	switch cmd.Kind {
	case CmdChat:
		return s.SendChat(cmd.Text)
	case CmdStart:
		return g.Start()
	case CmdPause:
		return g.TogglePause()
	case CmdChoose:
		return g.ChooseQuestion(cmd.Category, cmd.Index)
	case CmdAnswer:
		return g.Answer()
	case CmdJudge:
		return g.Judge(cmd.Correct)
	case CmdRemove:
		return g.PickFinalCategory(cmd.Category)
	case CmdBet:
		return g.Bet(cmd.Amount)
	case CmdFinal:
		return g.FinalAnswer(cmd.Text)
	case CmdHelp:
		sc.Printf("%s\n", help)
		return nil
	case CmdSearch, CmdJoin:
		return errors.New("leave the room first")
	default:
		return room.ErrWrongPhase
	}
}

// errInputClosed means stdin reached EOF, which counts as /leave.
var errInputClosed = io.EOF

func next(ctx context.Context, lines <-chan string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lines:
		if !ok {
			return "", errInputClosed
		}
		return line, nil
	}
}
