// Package idgen generates the short random tokens attached to outbound
// ledger calls: request ids for log correlation and nonces for signed calls.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RequestPrefix is prepended to every request id.
const RequestPrefix = "req-"

// Alphabet defines the character set used for the random portion of an id.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	requestIDLength = 12
	nonceLength     = 24
)

// RequestID returns a new id for correlating one remote call across logs.
func RequestID() (string, error) {
	id, err := nanoid.Generate(Alphabet, requestIDLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return RequestPrefix + id, nil
}

// Nonce returns a single-use random token for request signing.
func Nonce() (string, error) {
	n, err := nanoid.Generate(Alphabet, nonceLength)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return n, nil
}
