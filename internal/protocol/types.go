package protocol

import (
	"strings"
	"time"
	"unicode"
)

// User is the public identity of a participant: {id, name, avatar}.
type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// Initials is what gets drawn when the user has no avatar url.
func (u User) Initials() string {
	var out []rune
	start := true
	for _, r := range u.Name {
		if r == ' ' {
			start = true
			continue
		}
		if start {
			out = append(out, unicode.ToUpper(r))
			start = false
		}
	}
	return string(out)
}

type Host struct {
	User
	IsConnected bool `json:"isConnected"`
}

type Player struct {
	User
	Score       int  `json:"score"`
	IsConnected bool `json:"isConnected"`
}

type PackPreview struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PrivacyType string

const (
	Public  PrivacyType = "public"
	Private PrivacyType = "private"
)

// LobbyRoom is one entry of the lobby list. Lobby events always carry the
// whole object.
type LobbyRoom struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	PackPreview PackPreview `json:"packPreview"`
	Host        *User       `json:"host"`
	Players     []User      `json:"players"`
	MaxPlayers  int         `json:"maxPlayers"`
	Type        PrivacyType `json:"type"`
	Status      string      `json:"status"`
}

// Seats returns MaxPlayers slots, occupied ones first. A nil entry is a free
// seat.
func (r LobbyRoom) Seats() []*User {
	n := max(r.MaxPlayers, len(r.Players))
	seats := make([]*User, n)
	for i := range r.Players {
		seats[i] = &r.Players[i]
	}
	return seats
}

func (r LobbyRoom) IsFull() bool { return len(r.Players) >= r.MaxPlayers }

func (r LobbyRoom) IsPrivate() bool { return r.Type == Private }

func (r LobbyRoom) IsPlaying() bool { return strings.EqualFold(r.Status, "playing") }

type BoardQuestion struct {
	Index         int  `json:"index"`
	Value         int  `json:"value"`
	HasBeenPlayed bool `json:"hasBeenPlayed"`
}

type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
)

type Attachment struct {
	MediaType  MediaType `json:"mediaType"`
	ContentURL string    `json:"contentUrl"`
}

// Question is the wire form of currentQuestion. Players receive only the
// hidden fields; the host additionally gets Answers and Comment. Both
// variants decode into this struct, so whether it is revealed must come
// from the viewer's role, not from which fields happen to be set.
type Question struct {
	Index      int         `json:"index"`
	Value      int         `json:"value"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment"`
	Answers    []string    `json:"answers,omitempty"`
	Comment    *string     `json:"comment,omitempty"`
}

type FinalQuestion struct {
	Category   string      `json:"category"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment"`
	Answers    []string    `json:"answers,omitempty"`
	Comment    *string     `json:"comment,omitempty"`
}

type Bet struct {
	PlayerID string `json:"playerId"`
	Amount   int    `json:"amount"`
}

type FinalRoundState struct {
	IsActive           bool              `json:"isActive"`
	AvailableQuestions *OrderedMap[bool] `json:"availableQuestions"`
	Question           *FinalQuestion    `json:"question"`
	Bets               []Bet             `json:"bets"`
}

type PausedState struct {
	IsPaused bool      `json:"isPaused"`
	PausedAt time.Time `json:"pausedAt"`
}

// Room is the full state of a joined room. It is replaced as a whole on
// every "room" event.
type Room struct {
	ID                 string                       `json:"id"`
	Name               string                       `json:"name"`
	PackPreview        PackPreview                  `json:"packPreview"`
	Host               *Host                        `json:"host"`
	Players            []Player                     `json:"players"`
	CurrentRound       *string                      `json:"currentRound"`
	AvailableQuestions *OrderedMap[[]BoardQuestion] `json:"availableQuestions"`
	CurrentPlayer      *string                      `json:"currentPlayer"`
	CurrentQuestion    *Question                    `json:"currentQuestion"`
	AnsweringPlayer    *string                      `json:"answeringPlayer"`
	FinalRoundState    FinalRoundState              `json:"finalRoundState"`
	AllowedToAnswer    []string                     `json:"allowedToAnswer"`
	IsPaused           bool                         `json:"isPaused"`
	PausedState        *PausedState                 `json:"pausedState,omitempty"`
	DeadlineAt         *time.Time                   `json:"deadlineAt,omitempty"`
}

func (r Room) Player(id string) (Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

func (r Room) IsHost(userID string) bool {
	return r.Host != nil && r.Host.ID == userID
}

type ChatMessage struct {
	From User   `json:"from"`
	Text string `json:"text"`
}

// ServerError is the payload of an "error" event.
type ServerError struct {
	Error string `json:"error"`
}

type LobbyRoomDeleted struct {
	ID string `json:"id"`
}

// Deadline is the answer timer set by the server for the current question.
type Deadline struct {
	At time.Time
}

// Answers are the correct answers of the question that just ended.
type Answers struct {
	Answers []string
}
