// Package idgen generates short, URL-safe record keys backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Key prefixes for records whose key is generated on create.
const (
	OrderPrefix        = "ord-"
	NotificationPrefix = "ntf-"
)

// Alphabet defines the character set used for the random portion of a key.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 12

// Generator returns a new unique key.
type Generator func() (string, error)

// Prefixed returns a Generator that prepends prefix to every key.
func Prefixed(prefix string) Generator {
	return func() (string, error) { return GenerateWithPrefix(prefix) }
}

// GenerateWithPrefix returns a new unique key with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
