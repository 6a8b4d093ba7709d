// Package idgen generates session identifiers backed by nanoid.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// SessionPrefix is prepended to every session ID.
const SessionPrefix = "mx-"

// Alphabet is lowercase so IDs survive case-insensitive paths and object keys.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters after the prefix.
const Length = 12

// NewSessionID returns a fresh session ID such as "mx-4k2j9x0q1ab7".
func NewSessionID() (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return SessionPrefix + id, nil
}

// ValidSessionID reports whether id has the shape NewSessionID produces.
func ValidSessionID(id string) bool {
	rest, ok := strings.CutPrefix(id, SessionPrefix)
	if !ok || len(rest) != Length {
		return false
	}
	for _, c := range rest {
		if !strings.ContainsRune(Alphabet, c) {
			return false
		}
	}
	return true
}
