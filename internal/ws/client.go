package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/themobileprof/medibot-be/internal/memory"
)

const writeWait = 10 * time.Second

// Frame types sent to the browser
const (
	TypeSession  = "session"
	TypeMessage  = "message"
	TypeTable    = "table"
	TypeAudio    = "audio"
	TypeTip      = "tip"
	TypeReminder = "reminder"
	TypeError    = "error"
	TypeDone     = "done"
)

// OutgoingMessage represents a message to the client
type OutgoingMessage struct {
	Type    string      `json:"type"`
	Content string      `json:"content,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// client is one websocket connection. Writes come from the read loop, the
// tip ticker, speech playback and reminder timers, so they are serialized.
type client struct {
	sessionID string
	conn      *websocket.Conn

	mu sync.Mutex
}

func newClient(sessionID string, conn *websocket.Conn) *client {
	return &client{sessionID: sessionID, conn: conn}
}

func (c *client) write(msg OutgoingMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// SendMessage sends one bot line
func (c *client) SendMessage(content string) error {
	return c.write(OutgoingMessage{Type: TypeMessage, Content: content})
}

// SendTable sends the diagnosis table
func (c *client) SendTable(rows []memory.TableRow) error {
	return c.write(OutgoingMessage{Type: TypeTable, Data: rows})
}

// SendAudio sends base64 MP3 for the browser to play
func (c *client) SendAudio(audioBase64 string) error {
	return c.write(OutgoingMessage{Type: TypeAudio, Content: audioBase64})
}

// SendError sends an error message to the client
func (c *client) SendError(message string) error {
	return c.write(OutgoingMessage{Type: TypeError, Content: message})
}

// SendDone signals that the response is complete
func (c *client) SendDone() error {
	return c.write(OutgoingMessage{Type: TypeDone})
}
