package gateway

import (
	"fmt"
	"testing"
	"time"

	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

const testSecret = "whsec_test"

func signedHeader(payload []byte, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, ComputeSignature(testSecret, payload, ts))
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1","type":"payment_succeeded"}`)

	if err := VerifySignature(testSecret, payload, signedHeader(payload, now), 5*time.Minute, now); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifySignatureTamperedPayload(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	header := signedHeader([]byte(`{"amount":100}`), now)

	err := VerifySignature(testSecret, []byte(`{"amount":100000}`), header, 5*time.Minute, now)
	if err == nil {
		t.Fatal("expected signature mismatch")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifySignatureStaleTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader(payload, now.Add(-time.Hour))

	if err := VerifySignature(testSecret, payload, header, 5*time.Minute, now); err == nil {
		t.Fatal("expected stale timestamp rejection")
	}

	// A future timestamp outside the window is just as suspect.
	header = signedHeader(payload, now.Add(time.Hour))
	if err := VerifySignature(testSecret, payload, header, 5*time.Minute, now); err == nil {
		t.Fatal("expected future timestamp rejection")
	}
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{}`)

	for _, header := range []string{"", "v1=abc", "t=notanumber,v1=abc", "t=123"} {
		if err := VerifySignature(testSecret, payload, header, 5*time.Minute, now); err == nil {
			t.Fatalf("expected rejection for header %q", header)
		}
	}
}

func TestVerifySignatureMissingSecret(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	payload := []byte(`{}`)

	err := VerifySignature("", payload, signedHeader(payload, now), 5*time.Minute, now)
	if err == nil {
		t.Fatal("expected error without secret")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInternal {
		t.Fatalf("unexpected error: %v", err)
	}
}
