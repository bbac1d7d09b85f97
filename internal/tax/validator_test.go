package tax

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/atelierline/artmarket-backend/pkg/logger"
)

var errCacheMiss = fmt.Errorf("cache miss")

type fakeCache struct {
	values map[string]string
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return "", errCacheMiss
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = fmt.Sprint(value)
	f.sets++
	return nil
}

func (f *fakeCache) TaxValidationKey(country, taxID string) string {
	return "vat_check:" + country + ":" + taxID
}

func newTestValidator(t *testing.T, baseURL string, cache *fakeCache) *Validator {
	t.Helper()
	v, err := NewValidator(ValidatorParams{
		BaseURL:     baseURL,
		Timeout:     2 * time.Second,
		Cache:       cache,
		CacheTTL:    time.Hour,
		IsCacheMiss: func(err error) bool { return err == errCacheMiss },
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func TestValidatorLooksUpAndCaches(t *testing.T) {
	t.Parallel()

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/v1/check" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("country") != "FR" || r.URL.Query().Get("tax_id") != "FR999" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"valid":true,"checked_at":"2026-03-10T12:00:00Z"}`)
	}))
	defer server.Close()

	cache := newFakeCache()
	v := newTestValidator(t, server.URL, cache)

	valid, err := v.Validate(context.Background(), "fr", " FR999 ")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !valid {
		t.Fatal("expected valid registration")
	}
	if cache.sets != 1 {
		t.Fatalf("expected one cache write, got %d", cache.sets)
	}

	// Second check is answered from cache without another lookup.
	valid, err = v.Validate(context.Background(), "FR", "FR999")
	if err != nil {
		t.Fatalf("Validate (cached): %v", err)
	}
	if !valid {
		t.Fatal("expected cached result to be valid")
	}
	if requests != 1 {
		t.Fatalf("expected 1 registry request, got %d", requests)
	}
}

func TestValidatorCachesNegativeResults(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"valid":false}`)
	}))
	defer server.Close()

	cache := newFakeCache()
	v := newTestValidator(t, server.URL, cache)

	valid, err := v.Validate(context.Background(), "FR", "FR000")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if valid {
		t.Fatal("expected invalid registration")
	}
	if got := cache.values[cache.TaxValidationKey("FR", "FR000")]; got != "0" {
		t.Fatalf("expected cached negative, got %q", got)
	}
}

func TestValidatorRegistryErrorPropagates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	v := newTestValidator(t, server.URL, newFakeCache())

	if _, err := v.Validate(context.Background(), "FR", "FR999"); err == nil {
		t.Fatal("expected registry error")
	}
}

func TestValidatorRequiresCountryAndID(t *testing.T) {
	t.Parallel()

	v := newTestValidator(t, "http://localhost:1", newFakeCache())

	if _, err := v.Validate(context.Background(), "", "FR999"); err == nil {
		t.Fatal("expected error without country")
	}
	if _, err := v.Validate(context.Background(), "FR", "  "); err == nil {
		t.Fatal("expected error without tax id")
	}
}
