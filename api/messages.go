// Package api holds the wire-level helpers shared by the QuizBurst HTTP
// surface.
package api

import (
	"encoding/json"
	"io"
)

// DecodeMessage reads a JSON-encoded request body into T.
func DecodeMessage[T any](reader io.Reader) (*T, error) {
	var msg T
	err := json.NewDecoder(reader).Decode(&msg)
	return &msg, err
}

// SerializeMessage converts a response object to JSON bytes.
func SerializeMessage[T any](msg *T) ([]byte, error) {
	return json.Marshal(msg)
}
