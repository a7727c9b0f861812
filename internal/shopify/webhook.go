package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
)

// Webhook header names set by Shopify on every delivery.
const (
	HeaderHmac      = "X-Shopify-Hmac-Sha256"
	HeaderTopic     = "X-Shopify-Topic"
	HeaderShop      = "X-Shopify-Shop-Domain"
	HeaderWebhookID = "X-Shopify-Webhook-Id"
)

// VerifyWebhookHMAC checks the base64-encoded HMAC-SHA256 signature of a raw
// webhook body against the shared secret. Uses a constant-time comparison.
func VerifyWebhookHMAC(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// WebhookMeta is the delivery metadata extracted from request headers.
type WebhookMeta struct {
	MessageID  string
	Topic      string
	ShopDomain string
}

// ExtractWebhookMeta reads the delivery headers. The webhook ID doubles as
// the engine's de-duplication message ID; redeliveries reuse it.
func ExtractWebhookMeta(r *http.Request) WebhookMeta {
	return WebhookMeta{
		MessageID:  r.Header.Get(HeaderWebhookID),
		Topic:      r.Header.Get(HeaderTopic),
		ShopDomain: r.Header.Get(HeaderShop),
	}
}
