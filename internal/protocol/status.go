package protocol

import (
	"encoding/json"
	"fmt"
)

// Connection statuses sent by the relay.
const (
	StatusWaiting      = "waiting"
	StatusConnected    = "connected"
	StatusBusy         = "busy"
	StatusDisconnected = "disconnected"
)

// Player names assigned by the relay, first connection first.
const (
	PlayerFrench  = "French"
	PlayerEnglish = "English"
)

// Status is a connection lifecycle frame.
type Status struct {
	Status string `json:"status"`
	Player string `json:"player,omitempty"`
}

// EncodeStatus serializes a status frame. Status holds only strings, so
// marshalling cannot fail.
func EncodeStatus(s Status) []byte {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("encode status: %v", err))
	}
	return data
}

// DecodeStatus parses a status frame.
func DecodeStatus(data []byte) (Status, error) {
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if s.Status == "" {
		return Status{}, fmt.Errorf("%w: status frame without status", ErrMalformed)
	}
	return s, nil
}
