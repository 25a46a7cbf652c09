// Package uuid generates and validates the string identifiers used as
// primary keys across MyFinances services.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New generates a new time-ordered UUIDv7. If the random source fails it
// falls back to a random UUIDv4 so inserts never block on ID generation.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// Parse validates and canonicalizes a UUID string.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
