package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// readWait is generous; an idle client stays alive via ping actions.
	readWait = 5 * time.Minute
)

// WriteTyped sends a typed event payload with a bounded write deadline.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse for msg.
func WriteError(conn *websocket.Conn, msg string) error {
	return WriteTyped(conn, ErrorResponse{Event: EventError, Error: msg})
}

// ReadEnvelope reads the next message with a refreshed deadline, returning
// the decoded envelope alongside the raw bytes so the caller can decode the
// action-specific payload.
func ReadEnvelope(conn *websocket.Conn) (RequestEnvelope, []byte, error) {
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return RequestEnvelope{}, nil, err
	}
	var envelope RequestEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return RequestEnvelope{}, nil, err
	}
	return envelope, raw, nil
}
