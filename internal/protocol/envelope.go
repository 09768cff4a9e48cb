package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the unit on the wire in both directions:
// {"event":"...","payload":{...}}. There is no sequence number, ordering
// comes from the transport.
type Envelope struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Event string

// Inbound.
const (
	EventLobbyRoom        Event = "lobby-room"
	EventLobbyRoomDeleted Event = "lobby-room-deleted"
	EventRoom             Event = "room"
	EventChat             Event = "chat"
	EventError            Event = "error"
	EventDeadline         Event = "deadline"
	EventAnswers          Event = "answer"

	// eventRoomDeleted is the tag older servers publish for
	// lobby-room-deleted.
	eventRoomDeleted Event = "room-deleted"
)

// Outbound.
const (
	EventStart          Event = "start"
	EventTogglePause    Event = "togglePause"
	EventChooseQuestion Event = "chooseQuestion"
	EventAnswer         Event = "answer"
	EventValidation     Event = "validation"
	EventFinalCategory  Event = "finalCategory"
	EventBet            Event = "bet"
	EventFinalAnswer    Event = "finalAnswer"
)

var (
	ErrMalformedFrame   = errors.New("malformed frame")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrUnknownEvent     = errors.New("unknown event")
)

// DecodeError reports why an inbound frame was dropped. Err is one of the
// sentinel errors above, possibly wrapping the json error.
type DecodeError struct {
	Event Event
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("decode frame: %v", e.Err)
	}
	return fmt.Sprintf("decode %q: %v", e.Event, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// Encode serializes an envelope into a text frame.
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}
