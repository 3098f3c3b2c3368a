package gateway

import (
	"sync"

	"github.com/gorilla/websocket"
)

// WSFrame is one JSON event in either direction.
type WSFrame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Client wraps one WebSocket connection. Writes are serialized behind a
// mutex; the audio buffer accumulates binary chunks until end_audio.
type Client struct {
	ID   string
	Conn *websocket.Conn

	mu    sync.Mutex
	hook  func(WSFrame)
	audio []byte
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{ID: id, Conn: conn}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(frame WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}

// SendBinary ships raw bytes, used for synthesized question audio.
func (c *Client) SendBinary(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteMessage(websocket.BinaryMessage, data)
}

// AppendAudio buffers one chunk and returns a copy of everything buffered so far.
func (c *Client) AppendAudio(chunk []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audio = append(c.audio, chunk...)
	buf := make([]byte, len(c.audio))
	copy(buf, c.audio)
	return buf
}

// TakeAudio drains the buffer and returns its contents.
func (c *Client) TakeAudio() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	buf := c.audio
	c.audio = nil
	return buf
}
