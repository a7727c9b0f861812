package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/pkg/httputil"
	"github.com/ignite/shopify-repricer/internal/pkg/logger"
	"github.com/ignite/shopify-repricer/internal/repository/postgres"
	"github.com/ignite/shopify-repricer/internal/service/campaign"
	"github.com/ignite/shopify-repricer/internal/shopify"
)

// maxWebhookBody bounds inbound webhook payloads. Shopify payloads are small
// JSON documents; anything larger is not ours.
const maxWebhookBody = 1 << 20

// EventProcessor consumes one normalized inbound event.
type EventProcessor interface {
	Process(ctx context.Context, event domain.InventoryChangeEvent) (domain.ProcessingOutcome, error)
}

// AuditReader serves the admin API's audit listings.
type AuditReader interface {
	ListPriceChanges(ctx context.Context, shop string, f postgres.ResultsFilter) ([]domain.PriceChange, error)
	ListRuns(ctx context.Context, shop string, limit, offset int) ([]domain.ProcessingRun, error)
}

// Handlers holds the API's dependencies.
type Handlers struct {
	processor     EventProcessor
	campaigns     *campaign.Service
	audit         AuditReader
	health        *HealthChecker
	webhookSecret string
}

// NewHandlers wires the handler set.
func NewHandlers(processor EventProcessor, campaigns *campaign.Service, audit AuditReader, health *HealthChecker, webhookSecret string) *Handlers {
	return &Handlers{
		processor:     processor,
		campaigns:     campaigns,
		audit:         audit,
		health:        health,
		webhookSecret: webhookSecret,
	}
}

// HandleWebhook ingests a Shopify webhook delivery: verify the HMAC
// signature, normalize the delivery into an event, process it synchronously.
//
// Handled events always return 200, whatever the campaign outcomes were:
// a 2xx acknowledges delivery, and Shopify redelivers anything else. Only an
// internal failure (lock store down, campaign lookup failed) returns 500 so
// the redelivery mechanism retries the event later.
//
//	POST /webhooks/shopify
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		httputil.BadRequest(w, "unreadable body")
		return
	}

	signature := r.Header.Get(shopify.HeaderHmac)
	if !shopify.VerifyWebhookHMAC(h.webhookSecret, body, signature) {
		logger.Warn("webhook signature rejected",
			"shop", r.Header.Get(shopify.HeaderShop),
			"topic", r.Header.Get(shopify.HeaderTopic))
		httputil.Unauthorized(w, "invalid webhook signature")
		return
	}

	meta := shopify.ExtractWebhookMeta(r)
	if meta.ShopDomain == "" || meta.Topic == "" {
		httputil.BadRequest(w, "missing webhook headers")
		return
	}
	if meta.MessageID == "" {
		// No delivery ID means no cross-delivery de-duplication, but the
		// event is still processed once.
		meta.MessageID = uuid.New().String()
	}

	event := domain.InventoryChangeEvent{
		MessageID:  meta.MessageID,
		Topic:      domain.WebhookTopic(meta.Topic),
		ShopDomain: meta.ShopDomain,
		Payload:    body,
		ReceivedAt: time.Now(),
	}

	outcome, err := h.processor.Process(r.Context(), event)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, outcome)
}
