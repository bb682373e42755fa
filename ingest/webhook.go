package ingest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// WebhookEvent is the JSON payload an external system posts when a
// transcript is ready.
type WebhookEvent struct {
	Ref        string    `json:"ref"`
	Title      string    `json:"title"`
	SourceDate time.Time `json:"source_date"`
	Content    string    `json:"content"`
}

// verifySignature checks a hex-encoded HMAC-SHA256 signature over the payload.
func verifySignature(secret, payload []byte, signature string) error {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !hmac.Equal(expected, provided) {
		return ErrInvalidSignature
	}
	return nil
}

// SignPayload computes the hex-encoded HMAC-SHA256 signature a caller must
// send alongside a webhook payload.
func SignPayload(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	if event.Ref == "" {
		return nil, fmt.Errorf("webhook payload missing ref")
	}
	return &event, nil
}
