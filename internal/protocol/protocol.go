// Package protocol defines the wire format spoken between the control
// surface daemon and the bridge: JSON command/response envelopes over a
// plain TCP stream, with no length prefix or delimiter. A frame is
// complete exactly when the accumulated bytes parse as one JSON document.
package protocol

import (
	"encoding/json"
	"errors"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 9877

	// Version is reported by get_capabilities and bumped when the
	// command catalogue changes shape.
	Version = "1.2.0"
)

// Command is the request envelope. Params carries the raw parameter
// object so each handler can decode its own shape.
type Command struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the reply envelope. Result is populated on success,
// Message on error.
type Response struct {
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Err reports the response error, or nil when the status is success.
func (r *Response) Err() error {
	if r.Status != StatusError {
		return nil
	}
	if r.Message == "" {
		return errors.New("unknown error from control surface")
	}
	return errors.New(r.Message)
}

// Success builds a success envelope around an already-marshalable result.
func Success(result any) (Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: StatusSuccess, Result: raw}, nil
}

// Error builds an error envelope.
func Error(msg string) Response {
	return Response{Status: StatusError, Message: msg}
}
