package paymentwebhook

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type fakeIdempotencyStore struct {
	keys map[string]bool
}

func (f *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	if f.keys[key] {
		return "1", nil
	}
	return "", fmt.Errorf("missing key")
}

func (f *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "am:idem:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuardClaimsOnce(t *testing.T) {
	t.Parallel()

	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "payment")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if seen {
		t.Fatal("first delivery must not be marked as seen")
	}

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if !seen {
		t.Fatal("second delivery must be marked as seen")
	}
}

func TestIdempotencyGuardDeleteReopensClaim(t *testing.T) {
	t.Parallel()

	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "payment")
	if err != nil {
		t.Fatalf("NewIdempotencyGuard: %v", err)
	}
	ctx := context.Background()

	if _, err := guard.CheckAndMark(ctx, "evt_1"); err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if err := guard.Delete(ctx, "evt_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	if err != nil {
		t.Fatalf("CheckAndMark: %v", err)
	}
	if seen {
		t.Fatal("a released claim must be reusable by the retry")
	}
}
