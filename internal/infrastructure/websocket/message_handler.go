package websocket

import (
	"encoding/json"
	"time"

	"socialmall/pkg/logger"
)

// WebSocket Message Types
const (
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
	MessageTypeEditCommitted  = "edit.committed"
	MessageTypeEditRolledBack = "edit.rolled_back"
	MessageTypeError          = "error"
)

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewMessage(messageType string, data interface{}) WSMessage {
	return WSMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// HandleMessage answers a frame from the client. Only pings get a reply;
// the stream is otherwise server to client.
func HandleMessage(userID string, payload []byte) []byte {
	var msg WSMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		logger.Debug("Ignoring malformed websocket frame from %s: %v", userID, err)
		return encode(NewMessage(MessageTypeError, map[string]string{"message": "malformed frame"}))
	}

	switch msg.Type {
	case MessageTypePing:
		return encode(NewMessage(MessageTypePong, nil))
	default:
		logger.Debug("Ignoring websocket frame %q from %s", msg.Type, userID)
		return nil
	}
}

// Notify pushes an event to a user if connected.
func (m *Manager) Notify(userID, eventType string, data interface{}) {
	payload := encode(NewMessage(eventType, data))
	if payload == nil {
		return
	}
	m.SendToUser(userID, payload)
}

func encode(msg WSMessage) []byte {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to encode websocket message %s: %v", msg.Type, err)
		return nil
	}
	return payload
}
