// Package id mints the prefixed identifiers used for users, workspaces,
// lists, cards, activities, tokens and realtime sessions.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes name what an ID refers to, so "card-…" in a log line or an order
// payload is self-describing.
const (
	PrefixUser      = "usr"
	PrefixWorkspace = "ws"
	PrefixList      = "list"
	PrefixCard      = "card"
	PrefixActivity  = "act"
	PrefixSession   = "sess"
	PrefixToken     = "token"
)

// Generate returns prefix, a hyphen and a 21 character URL-safe NanoID. It
// fails only when the system entropy source does.
func Generate(prefix string) (string, error) {
	n, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", prefix, err)
	}
	return prefix + "-" + n, nil
}
