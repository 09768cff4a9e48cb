// Package tui is a line-oriented terminal front end. It renders state owned
// by the session packages and turns typed lines into intents.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	CmdChat Kind = iota
	CmdHelp
	CmdLeave
	CmdSearch
	CmdJoin
	CmdStart
	CmdPause
	CmdChoose
	CmdAnswer
	CmdJudge
	CmdRemove
	CmdBet
	CmdFinal
)

// Command is one parsed input line. Only the fields of its Kind are set.
type Command struct {
	Kind     Kind
	Text     string
	Category string
	Index    int
	Correct  bool
	Amount   int
	RoomID   string
	Password string
}

var ErrUsage = errors.New("usage")

const help = `commands:
  <text>                    chat
  /search <term>            filter the lobby by room name
  /join <room id> [pass]    enter a room
  /start                    start the game (host)
  /pause                    pause or resume (host)
  /choose <category> <n>    open question n of category
  /answer                   buzz in
  /judge yes|no             judge the answering player (host)
  /remove <category>        remove a final round category
  /bet <amount>             bet in the final round
  /final <text>             answer the final question
  /leave                    leave the current screen`

// Parse reads a line typed by the user. Anything not starting with "/" is
// chat.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return Command{Kind: CmdChat, Text: line}, nil
	}

	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(name) {
	case "help", "?":
		return Command{Kind: CmdHelp}, nil
	case "leave", "quit", "q":
		return Command{Kind: CmdLeave}, nil
	case "search":
		return Command{Kind: CmdSearch, Text: rest}, nil
	case "join":
		if len(args) == 0 || len(args) > 2 {
			return Command{}, usage("/join <room id> [password]")
		}
		c := Command{Kind: CmdJoin, RoomID: args[0]}
		if len(args) == 2 {
			c.Password = args[1]
		}
		return c, nil
	case "start":
		return Command{Kind: CmdStart}, nil
	case "pause", "continue", "resume":
		return Command{Kind: CmdPause}, nil
	case "choose":
		// the category may contain spaces, the index is the last field
		if len(args) < 2 {
			return Command{}, usage("/choose <category> <n>")
		}
		idx, err := strconv.Atoi(args[len(args)-1])
		if err != nil || idx < 0 {
			return Command{}, usage("/choose <category> <n>")
		}
		return Command{Kind: CmdChoose, Category: strings.Join(args[:len(args)-1], " "), Index: idx}, nil
	case "answer":
		return Command{Kind: CmdAnswer}, nil
	case "judge":
		if len(args) != 1 {
			return Command{}, usage("/judge yes|no")
		}
		switch strings.ToLower(args[0]) {
		case "yes", "y", "correct":
			return Command{Kind: CmdJudge, Correct: true}, nil
		case "no", "n", "wrong":
			return Command{Kind: CmdJudge, Correct: false}, nil
		}
		return Command{}, usage("/judge yes|no")
	case "remove":
		if rest == "" {
			return Command{}, usage("/remove <category>")
		}
		return Command{Kind: CmdRemove, Category: rest}, nil
	case "bet":
		if len(args) != 1 {
			return Command{}, usage("/bet <amount>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Command{}, usage("/bet <amount>")
		}
		return Command{Kind: CmdBet, Amount: n}, nil
	case "final":
		return Command{Kind: CmdFinal, Text: rest}, nil
	default:
		return Command{}, fmt.Errorf("unknown command /%s, try /help", name)
	}
}

func usage(s string) error {
	return fmt.Errorf("%w: %s", ErrUsage, s)
}
