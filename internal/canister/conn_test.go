package canister

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestBearerToken_Sign(t *testing.T) {
	h, err := BearerToken("abc").Sign(context.Background(), MethodBuyLand, nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if h["authorization"] != "Bearer abc" {
		t.Errorf("authorization = %q", h["authorization"])
	}

	if _, err := BearerToken("  ").Sign(context.Background(), MethodBuyLand, nil); err == nil {
		t.Error("expected error for blank token")
	}
}

func TestHMACSigner_Sign(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := HMACSigner{KeyID: "agent-1", Secret: "s3cret", Now: func() time.Time { return now }}
	body := []byte(`{"args":["7"]}`)

	h, err := s.Sign(context.Background(), MethodBuyLand, body)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if h[HeaderKeyID] != "agent-1" {
		t.Errorf("%s = %q", HeaderKeyID, h[HeaderKeyID])
	}
	if h[HeaderTimestamp] != "1772366400" {
		t.Errorf("%s = %q, want 1772366400", HeaderTimestamp, h[HeaderTimestamp])
	}
	if len(h[HeaderNonce]) != 24 {
		t.Errorf("%s = %q, want 24 chars", HeaderNonce, h[HeaderNonce])
	}
	want := SignatureFor("s3cret", MethodBuyLand, h[HeaderTimestamp], h[HeaderNonce], body)
	if h[HeaderSignature] != want {
		t.Errorf("%s = %q, want %q", HeaderSignature, h[HeaderSignature], want)
	}

	// Any change to the signed material changes the signature.
	if other := SignatureFor("s3cret", MethodSetLandForSale, h[HeaderTimestamp], h[HeaderNonce], body); other == want {
		t.Error("signature does not cover the method")
	}
	if other := SignatureFor("s3cret", MethodBuyLand, h[HeaderTimestamp], h[HeaderNonce], []byte(`{"args":["8"]}`)); other == want {
		t.Error("signature does not cover the body")
	}
}

func TestHMACSigner_MissingCredentials(t *testing.T) {
	for _, s := range []HMACSigner{{Secret: "x"}, {KeyID: "k"}} {
		if _, err := s.Sign(context.Background(), MethodBuyLand, nil); err == nil {
			t.Errorf("Sign(%+v) expected error", s)
		}
	}
}

func TestCallHeaders(t *testing.T) {
	h, err := callHeaders(context.Background(), BearerToken("t"), "land-registry", MethodBuyLand, nil)
	if err != nil {
		t.Fatalf("callHeaders() error = %v", err)
	}
	if !strings.HasPrefix(h[HeaderRequestID], "req-") {
		t.Errorf("%s = %q", HeaderRequestID, h[HeaderRequestID])
	}
	if h[HeaderCanisterID] != "land-registry" {
		t.Errorf("%s = %q", HeaderCanisterID, h[HeaderCanisterID])
	}
	if h["authorization"] != "Bearer t" {
		t.Errorf("authorization = %q", h["authorization"])
	}

	h, err = callHeaders(context.Background(), nil, "c", MethodBuyLand, nil)
	if err != nil {
		t.Fatalf("callHeaders(nil signer) error = %v", err)
	}
	if len(h) != 2 {
		t.Errorf("headers = %v, want only request and canister ids", h)
	}
}
