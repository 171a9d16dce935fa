package ports

import (
	"github.com/kevin07696/payment-intents/internal/domain/models"
)

// WebhookVerifier authenticates inbound webhook deliveries.
// Verification runs over the exact raw bytes as received; any
// re-serialization before the check invalidates the signature.
// Parsing happens only after the signature is accepted.
type WebhookVerifier interface {
	VerifyAndParse(payload []byte, signatureHeader string) (*models.VerifiedEvent, error)
}
