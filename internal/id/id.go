// Package id generates cache-local entity identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes. Every local identifier carries one so a bare ID in a log
// line is self-describing.
const (
	PrefixTag     = "tag"
	PrefixBag     = "bag"
	PrefixProduct = "prd"
	PrefixUsage   = "use"
	PrefixJourney = "jrn"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "prd-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random
// generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use only where failure should crash the program (e.g., during
// initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
