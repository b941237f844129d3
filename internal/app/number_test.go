package app

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

	number, err := newOrderNumber(now)
	if err != nil {
		t.Fatalf("newOrderNumber failed: %v", err)
	}

	pattern := regexp.MustCompile(`^HF-20260830-[A-Z2-9]{6}$`)
	if !pattern.MatchString(number) {
		t.Errorf("number %q does not match expected format", number)
	}

	suffix := number[len(number)-6:]
	for _, r := range suffix {
		if !strings.ContainsRune(numberAlphabet, r) {
			t.Errorf("suffix character %q outside the allowed alphabet", r)
		}
	}
}

func TestNumberAlphabetExcludesAmbiguousCharacters(t *testing.T) {
	for _, c := range "0O1I" {
		if strings.ContainsRune(numberAlphabet, c) {
			t.Errorf("alphabet must not contain %q", c)
		}
	}
}

func TestNewOrderNumber_VariesBetweenCalls(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		number, err := newOrderNumber(now)
		if err != nil {
			t.Fatalf("newOrderNumber failed: %v", err)
		}
		seen[number] = true
	}
	if len(seen) < 2 {
		t.Error("expected distinct suffixes across calls")
	}
}
