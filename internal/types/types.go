package types

import "time"

type Event struct {
	Type    string         `json:"type"`
	Ts      time.Time      `json:"timestamp"`
	Payload map[string]any `json:"payload,omitempty"`
}

// RoomInfo describes a timer room independent of its live state.
type RoomInfo struct {
	ID        string    `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
}
