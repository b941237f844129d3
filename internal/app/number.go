package app

import (
	"crypto/rand"
	"fmt"
	"time"
)

// numberPrefix is the fixed prefix of every order number.
const numberPrefix = "HF"

// numberAlphabet excludes ambiguous characters (0/O, 1/I).
const numberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newOrderNumber produces a candidate order number: prefix, order date,
// and a random six-character suffix. Uniqueness is enforced by the caller
// against the store; on collision a fresh candidate is generated.
func newOrderNumber(now time.Time) (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random suffix: %w", err)
	}

	suffix := make([]byte, len(b))
	for i, v := range b {
		suffix[i] = numberAlphabet[int(v)%len(numberAlphabet)]
	}

	return fmt.Sprintf("%s-%s-%s", numberPrefix, now.Format("20060102"), suffix), nil
}
