package screenws

import "encoding/json"

// Message is the envelope for every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	TsMs    int64           `json:"ts_ms"`
	RoomID  string          `json:"room_id"`
	Seq     int64           `json:"seq"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound message types.
const (
	TypeState  = "state"
	TypeHaptic = "haptic"
	TypeLevel  = "level"
	TypeError  = "error"
)

// TypeHello is sent by a screen after connecting; the server answers with state.
const TypeHello = "hello"

type hapticPayload struct {
	Kind string `json:"kind"`
	Ms   int64  `json:"ms"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
