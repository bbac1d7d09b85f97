package tax

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

type validationCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	TaxValidationKey(country, taxID string) string
}

type cacheMissChecker func(error) bool

// Validator checks tax registrations against the external registry service
// and caches results keyed by (country, taxId) to keep checkout latency flat.
type Validator struct {
	baseURL    string
	httpClient *http.Client
	cache      validationCache
	cacheTTL   time.Duration
	isMiss     cacheMissChecker
	logg       *logger.Logger
}

// ValidatorParams collects the validator dependencies.
type ValidatorParams struct {
	BaseURL     string
	Timeout     time.Duration
	Cache       validationCache
	CacheTTL    time.Duration
	IsCacheMiss cacheMissChecker
	Logger      *logger.Logger
}

// NewValidator builds the cached registry client.
func NewValidator(params ValidatorParams) (*Validator, error) {
	if params.BaseURL == "" {
		return nil, fmt.Errorf("validator base url required")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("validation cache required")
	}
	if params.Timeout <= 0 {
		params.Timeout = 5 * time.Second
	}
	if params.CacheTTL <= 0 {
		params.CacheTTL = time.Hour
	}
	if params.IsCacheMiss == nil {
		params.IsCacheMiss = func(error) bool { return false }
	}
	return &Validator{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		httpClient: &http.Client{Timeout: params.Timeout},
		cache:      params.Cache,
		cacheTTL:   params.CacheTTL,
		isMiss:     params.IsCacheMiss,
		logg:       params.Logger,
	}, nil
}

type validationResponse struct {
	Valid     bool      `json:"valid"`
	CheckedAt time.Time `json:"checked_at"`
}

// Validate returns whether the (country, taxId) pair is a registered
// business. Cached answers are served without touching the registry.
func (v *Validator) Validate(ctx context.Context, country, taxID string) (bool, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	taxID = strings.TrimSpace(taxID)
	if country == "" || taxID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "country and tax id required")
	}

	key := v.cache.TaxValidationKey(country, taxID)
	if cached, err := v.cache.Get(ctx, key); err == nil {
		return cached == "1", nil
	} else if !v.isMiss(err) && v.logg != nil {
		v.logg.Warn(ctx, "tax validation cache read failed")
	}

	valid, err := v.lookup(ctx, country, taxID)
	if err != nil {
		return false, err
	}

	value := "0"
	if valid {
		value = "1"
	}
	if err := v.cache.Set(ctx, key, value, v.cacheTTL); err != nil && v.logg != nil {
		v.logg.Warn(ctx, "tax validation cache write failed")
	}
	return valid, nil
}

func (v *Validator) lookup(ctx context.Context, country, taxID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v1/check?country=%s&tax_id=%s",
		v.baseURL, url.QueryEscape(country), url.QueryEscape(taxID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build validator request")
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tax id validator unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("tax id validator returned %d", resp.StatusCode))
	}

	var payload validationResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode validator response")
	}
	return payload.Valid, nil
}
