package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds how long a single frame write may block.
	writeWait = 10 * time.Second
	// readWait is generous: an idle client is kept alive by server ticks,
	// not by its own traffic.
	readWait = 5 * time.Minute
)

// Send encodes v as JSON and writes it within writeWait.
func Send(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// SendError reports a failure to the client without closing the stream.
func SendError(conn *websocket.Conn, msg string) error {
	return Send(conn, ErrorResponse{Event: EventError, Error: msg})
}

// Read decodes the next client frame into v, bounded by readWait.
func Read(conn *websocket.Conn, v any) error {
	conn.SetReadDeadline(time.Now().Add(readWait))
	return conn.ReadJSON(v)
}
