package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Inbound is a decoded server event. The set of implementations is closed:
// LobbyRoom, LobbyRoomDeleted, Room, ChatMessage, ServerError, Deadline and
// Answers.
type Inbound interface {
	inboundEvent() Event
}

func (LobbyRoom) inboundEvent() Event        { return EventLobbyRoom }
func (LobbyRoomDeleted) inboundEvent() Event { return EventLobbyRoomDeleted }
func (Room) inboundEvent() Event             { return EventRoom }
func (ChatMessage) inboundEvent() Event      { return EventChat }
func (ServerError) inboundEvent() Event      { return EventError }
func (Deadline) inboundEvent() Event         { return EventDeadline }
func (Answers) inboundEvent() Event          { return EventAnswers }

// EventOf returns the tag an inbound value was decoded from.
func EventOf(in Inbound) Event { return in.inboundEvent() }

// MaxBoardRows bounds the question index within a category.
const MaxBoardRows = 100

var (
	lobbyRoomKeys = []string{"id", "name", "packPreview", "host", "players", "maxPlayers", "type", "status"}
	roomKeys      = []string{
		"id", "name", "packPreview", "host", "players", "currentRound",
		"availableQuestions", "currentPlayer", "currentQuestion",
		"answeringPlayer", "finalRoundState", "allowedToAnswer",
	}
	chatKeys    = []string{"from", "text"}
	deletedKeys = []string{"id"}
	errorKeys   = []string{"error"}
)

// DecodeInbound turns one text frame into a typed event. Frames that are not
// JSON, carry an unknown tag or whose payload misses required fields come
// back as *DecodeError and must not touch any state.
func DecodeInbound(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("%w: %v", ErrMalformedFrame, err)}
	}
	in, err := decodePayload(env)
	if err != nil {
		return nil, &DecodeError{Event: env.Event, Err: err}
	}
	return in, nil
}

func decodePayload(env Envelope) (Inbound, error) {
	switch env.Event {
	case EventLobbyRoom:
		var lr LobbyRoom
		if err := decodeObject(env.Payload, &lr, lobbyRoomKeys); err != nil {
			return nil, err
		}
		return lr, nil

	case EventLobbyRoomDeleted, eventRoomDeleted:
		var d LobbyRoomDeleted
		if err := decodeObject(env.Payload, &d, deletedKeys); err != nil {
			return nil, err
		}
		return d, nil

	case EventRoom:
		return decodeRoom(env.Payload)

	case EventChat:
		var m ChatMessage
		if err := decodeObject(env.Payload, &m, chatKeys); err != nil {
			return nil, err
		}
		return m, nil

	case EventError:
		var e ServerError
		if err := decodeObject(env.Payload, &e, errorKeys); err != nil {
			return nil, err
		}
		return e, nil

	case EventDeadline:
		return decodeDeadline(env.Payload)

	case EventAnswers:
		var answers []string
		if err := json.Unmarshal(env.Payload, &answers); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		return Answers{Answers: answers}, nil

	default:
		return nil, ErrUnknownEvent
	}
}

// decodeObject checks that payload is an object holding every key in
// required (null values count as present) and then decodes it into dst.
func decodeObject(payload json.RawMessage, dst any, required []string) error {
	fields, err := objectFields(payload)
	if err != nil {
		return err
	}
	for _, k := range required {
		if _, ok := fields[k]; !ok {
			return fmt.Errorf("%w: missing %q", ErrMalformedPayload, k)
		}
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func objectFields(payload json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected object", ErrMalformedPayload)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return fields, nil
}

func decodeRoom(payload json.RawMessage) (Inbound, error) {
	r, err := DecodeRoom(payload)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DecodeRoom checks and decodes a room snapshot, whether it came in a room
// event or from the enter-room call. The pause flag is accepted either as
// top-level isPaused or as pausedState.isPaused and normalised onto
// Room.IsPaused. Board indexes outside [0, MaxBoardRows) are rejected.
func DecodeRoom(payload json.RawMessage) (Room, error) {
	var r Room
	if err := decodeObject(payload, &r, roomKeys); err != nil {
		return Room{}, err
	}
	fields, _ := objectFields(payload)
	_, hasFlag := fields["isPaused"]
	switch {
	case hasFlag:
	case r.PausedState != nil:
		r.IsPaused = r.PausedState.IsPaused
	default:
		return Room{}, fmt.Errorf("%w: missing %q", ErrMalformedPayload, "isPaused")
	}
	aq := r.AvailableQuestions
	for _, cat := range aq.Keys() {
		qs, _ := aq.Get(cat)
		for _, q := range qs {
			if q.Index < 0 || q.Index >= MaxBoardRows {
				return Room{}, fmt.Errorf("%w: %q index %d out of range", ErrMalformedPayload, cat, q.Index)
			}
		}
	}
	return r, nil
}

func decodeDeadline(payload json.RawMessage) (Inbound, error) {
	var at time.Time
	if err := json.Unmarshal(payload, &at); err == nil {
		return Deadline{At: at}, nil
	}
	var obj struct {
		Deadline *time.Time `json:"deadline"`
	}
	if err := json.Unmarshal(payload, &obj); err != nil || obj.Deadline == nil {
		return nil, fmt.Errorf("%w: expected timestamp", ErrMalformedPayload)
	}
	return Deadline{At: *obj.Deadline}, nil
}
