// Package protocol defines the network message types for client-server communication.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MaxMessageSize is the largest message a client accepts from the server.
// Results that would not fit are refused with ErrCodeResultTooLarge.
const MaxMessageSize = 64 << 20

// MessageType identifies the type of message.
type MessageType string

// Processing message types
const (
	TypeProcessMap    MessageType = "process_map"
	TypeProgress      MessageType = "progress"
	TypeProcessResult MessageType = "process_result"
)

// Catalogue message types
const (
	TypeListMaps    MessageType = "list_maps"
	TypeMapList     MessageType = "map_list"
	TypeListLayouts MessageType = "list_layouts"
	TypeLayoutList  MessageType = "layout_list"
)

// System message types
const (
	TypeWelcome MessageType = "welcome"
	TypeError   MessageType = "error"
	TypePing    MessageType = "ping"
	TypePong    MessageType = "pong"
)

// Message is the envelope for all messages.
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewMessage creates a new message with the given type and payload.
func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Payload:   data,
	}, nil
}

// ParsePayload unmarshals the payload into the given type.
func (m *Message) ParsePayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// ErrorCode represents an error type.
type ErrorCode string

const (
	ErrCodeInvalidMessage ErrorCode = "invalid_message"
	ErrCodeInvalidMap     ErrorCode = "invalid_map"
	ErrCodeMapNotFound    ErrorCode = "map_not_found"
	ErrCodeLayoutNotFound ErrorCode = "layout_not_found"
	ErrCodeTooManyZones   ErrorCode = "too_many_zones"
	ErrCodeProcessFailed  ErrorCode = "process_failed"
	ErrCodeResultTooLarge ErrorCode = "result_too_large"
	ErrCodeInternalError  ErrorCode = "internal_error"
)

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
