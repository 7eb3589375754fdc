package airq

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPadding   = errors.New("invalid padding")
	ErrInvalidUTF8      = errors.New("decrypted payload is not valid UTF-8")
	ErrCiphertextLength = errors.New("invalid ciphertext length")
	ErrMissingContent   = errors.New("response has no content field")
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
	ErrMissingKey       = errors.New("response lacks expected key")
	ErrInvalidIPAddress = errors.New("invalid IPv4 address")
	ErrUnsupportedRoute = errors.New("unsupported route")
)

// ConnectionError reports that the device could not be reached: network
// failure, DNS failure, timeout or cancellation.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError reports a payload that does not decrypt to valid
// text. This almost always means the password is wrong.
type AuthenticationError struct {
	Op  string
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: authentication failed (wrong password?): %v", e.Op, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ProtocolError reports a response that reached us but does not have the
// expected shape: bad status, malformed envelope, truncated ciphertext,
// non-JSON plaintext or missing keys.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// CommandError is returned when the device rejects a write command.
type CommandError struct {
	Op      string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: device rejected command: %s", e.Op, e.Message)
}

// classify wraps a decoding error into the matching typed error.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidPadding), errors.Is(err, ErrInvalidUTF8):
		return &AuthenticationError{Op: op, Err: err}
	default:
		return &ProtocolError{Op: op, Err: err}
	}
}
