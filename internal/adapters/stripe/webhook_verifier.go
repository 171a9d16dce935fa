package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/models"
)

// SignatureHeader is the HTTP header carrying the webhook signature
const SignatureHeader = "Stripe-Signature"

// DefaultSignatureTolerance bounds how stale a signed timestamp may be.
// Zero disables the check.
const DefaultSignatureTolerance = 5 * time.Minute

// WebhookVerifier verifies Stripe-style webhook signatures.
//
// The header format is "t=<unix>,v1=<hex>", where the hex value is
// HMAC-SHA256 over "<t>.<raw body>" keyed with the endpoint secret.
// Multiple v1 entries may appear during secret rotation; any match accepts.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier for the given endpoint secret
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: DefaultSignatureTolerance,
		now:       time.Now,
	}
}

// VerifyAndParse checks the signature over the raw payload bytes and, only
// on success, parses the event envelope. The raw bytes must be exactly as
// received on the wire.
func (v *WebhookVerifier) VerifyAndParse(payload []byte, signatureHeader string) (*models.VerifiedEvent, error) {
	timestamp, candidates, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeSignatureInvalid, "malformed signature header", err)
	}

	if v.tolerance > 0 {
		signedAt := time.Unix(timestamp, 0)
		if v.now().Sub(signedAt) > v.tolerance {
			return nil, domain.NewDomainError(domain.ErrorCodeSignatureInvalid, "signature timestamp outside tolerance")
		}
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, candidate := range candidates {
		decoded, decodeErr := hex.DecodeString(candidate)
		if decodeErr != nil {
			continue
		}
		if hmac.Equal(expected, decoded) {
			event, parseErr := models.DecodeEventEnvelope(payload)
			if parseErr != nil {
				return nil, domain.WrapError(domain.ErrorCodeEventMalformed, "signed payload is not a valid event", parseErr)
			}
			if event.ID == "" {
				return nil, domain.NewDomainError(domain.ErrorCodeEventMalformed, "event is missing an id")
			}
			return event, nil
		}
	}

	return nil, domain.ErrSignatureInvalid
}

// parseSignatureHeader extracts the timestamp and all v1 signature
// candidates from a "t=...,v1=...[,v1=...]" header
func parseSignatureHeader(header string) (int64, []string, error) {
	if header == "" {
		return 0, nil, fmt.Errorf("empty signature header")
	}

	var timestamp int64 = -1
	var candidates []string

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("invalid timestamp %q", value)
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if timestamp < 0 {
		return 0, nil, fmt.Errorf("signature header missing timestamp")
	}
	if len(candidates) == 0 {
		return 0, nil, fmt.Errorf("signature header missing v1 signature")
	}

	return timestamp, candidates, nil
}
