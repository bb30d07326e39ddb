package idgen

import (
	"regexp"
	"strings"
	"testing"
)

var charset = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

func TestRequestID(t *testing.T) {
	id, err := RequestID()
	if err != nil {
		t.Fatalf("RequestID() error: %v", err)
	}
	if !strings.HasPrefix(id, RequestPrefix) {
		t.Errorf("RequestID() = %q, want prefix %q", id, RequestPrefix)
	}
	if got := len(id) - len(RequestPrefix); got != requestIDLength {
		t.Errorf("random part length = %d, want %d", got, requestIDLength)
	}
	if !charset.MatchString(strings.TrimPrefix(id, RequestPrefix)) {
		t.Errorf("RequestID() = %q, does not match expected charset", id)
	}
}

func TestNonce(t *testing.T) {
	n, err := Nonce()
	if err != nil {
		t.Fatalf("Nonce() error: %v", err)
	}
	if len(n) != nonceLength {
		t.Errorf("len(Nonce()) = %d, want %d", len(n), nonceLength)
	}
	if !charset.MatchString(n) {
		t.Errorf("Nonce() = %q, does not match expected charset", n)
	}
}

func TestRequestID_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := RequestID()
		if err != nil {
			t.Fatalf("RequestID() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}
