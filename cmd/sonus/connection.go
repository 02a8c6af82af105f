package main

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// serverMessage is the decoded form of every message the gateway sends.
// Fields are populated according to Type.
type serverMessage struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Data       []byte `json:"data,omitempty"`
	Size       int    `json:"size,omitempty"`
	IsComplete bool   `json:"isComplete,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
}

type clientMessage struct {
	Type  string `json:"type"`
	Chunk []byte `json:"chunk,omitempty"`
}

// connection wraps the gateway socket. Writes come from the UI and the
// capture callback concurrently, so they are serialized here.
type connection struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func dial(url string) (*connection, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &connection{conn: conn}, nil
}

func (c *connection) startConversation() error {
	return c.write(clientMessage{Type: "start_conversation"})
}

func (c *connection) sendAudio(chunk []byte) error {
	return c.write(clientMessage{Type: "audio_data", Chunk: chunk})
}

func (c *connection) stop() error {
	return c.write(clientMessage{Type: "stop"})
}

func (c *connection) write(message clientMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(message)
}

// read blocks for the next server message.
func (c *connection) read() (serverMessage, error) {
	var message serverMessage
	if err := c.conn.ReadJSON(&message); err != nil {
		return serverMessage{}, err
	}
	return message, nil
}

func (c *connection) close() {
	c.conn.Close()
}
