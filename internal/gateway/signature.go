package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
)

// SignatureHeader is the header carrying the provider's event signature,
// formatted as "t=<unix>,v1=<hex hmac-sha256 of `<unix>.<payload>`>".
const SignatureHeader = "X-Gateway-Signature"

// VerifySignature authenticates a webhook payload against the shared secret.
// Events outside the tolerance window are rejected to blunt replayed
// captures even when the signature itself is genuine.
func VerifySignature(secret string, payload []byte, header string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "webhook secret not configured")
	}

	timestamp, signature, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	eventTime := time.Unix(timestamp, 0)
	if tolerance > 0 {
		drift := now.Sub(eventTime)
		if drift < 0 {
			drift = -drift
		}
		if drift > tolerance {
			return pkgerrors.New(pkgerrors.CodeValidation, "webhook timestamp outside tolerance")
		}
	}

	expected := ComputeSignature(secret, payload, timestamp)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook signature mismatch")
	}
	return nil
}

// ComputeSignature produces the hex signature for a payload at a timestamp.
func ComputeSignature(secret string, payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSignatureHeader(header string) (int64, string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "missing webhook signature")
	}

	var timestamp int64
	var signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "malformed webhook timestamp")
			}
			timestamp = parsed
		case "v1":
			signature = value
		}
	}

	if timestamp == 0 || signature == "" {
		return 0, "", pkgerrors.New(pkgerrors.CodeValidation, "malformed webhook signature")
	}
	return timestamp, signature, nil
}
