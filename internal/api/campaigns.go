package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/shopify-repricer/internal/domain"
	"github.com/ignite/shopify-repricer/internal/pkg/httputil"
	"github.com/ignite/shopify-repricer/internal/repository/postgres"
	"github.com/ignite/shopify-repricer/internal/service/campaign"
)

// shopDomain resolves the tenant for admin requests from the X-Shop-Domain
// header, falling back to the shop query parameter.
func shopDomain(r *http.Request) string {
	if s := r.Header.Get("X-Shop-Domain"); s != "" {
		return s
	}
	return r.URL.Query().Get("shop")
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// ListCampaigns returns campaigns for a shop with pagination.
//
//	GET /api/campaigns?shop=...&status=...&search=...&limit=...&offset=...
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	shop := shopDomain(r)
	if shop == "" {
		httputil.BadRequest(w, "shop domain is required")
		return
	}

	list, total, err := h.campaigns.List(r.Context(), shop, campaign.ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"campaigns": list, "total": total})
}

// GetCampaign returns a single campaign with its rules.
//
//	GET /api/campaigns/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	shop := shopDomain(r)
	if shop == "" {
		httputil.BadRequest(w, "shop domain is required")
		return
	}

	c, err := h.campaigns.Get(r.Context(), shop, chi.URLParam(r, "id"))
	if errors.Is(err, campaign.ErrNotFound) {
		httputil.NotFound(w, "campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// CreateCampaign creates a campaign in DRAFT status.
//
//	POST /api/campaigns
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	shop := shopDomain(r)
	if shop == "" {
		httputil.BadRequest(w, "shop domain is required")
		return
	}

	var input campaign.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}

	c, err := h.campaigns.Create(r.Context(), shop, input)
	if err != nil {
		if errors.Is(err, campaign.ErrInvalidRule) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, c)
}

// updateCampaignRequest mirrors campaign.UpdateFields over JSON.
type updateCampaignRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Priority    *int                   `json:"priority"`
	Targets     *domain.TargetCriteria `json:"targets"`
	Rules       *[]domain.PricingRule  `json:"rules"`
}

// UpdateCampaign applies a partial update; rules, when present, replace the
// full rule set.
//
//	PUT /api/campaigns/{id}
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	shop := shopDomain(r)
	if shop == "" {
		httputil.BadRequest(w, "shop domain is required")
		return
	}

	var req updateCampaignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.campaigns.Update(r.Context(), shop, chi.URLParam(r, "id"), campaign.UpdateFields{
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Targets:     req.Targets,
		Rules:       req.Rules,
	})
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrInvalidRule):
		httputil.BadRequest(w, err.Error())
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, map[string]string{"status": "updated"})
	}
}

// DeleteCampaign removes a DRAFT or ARCHIVED campaign.
//
//	DELETE /api/campaigns/{id}
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	shop := shopDomain(r)
	if shop == "" {
		httputil.BadRequest(w, "shop domain is required")
		return
	}

	err := h.campaigns.Delete(r.Context(), shop, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrInvalidTransition):
		httputil.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, map[string]string{"status": "deleted"})
	}
}

// SetCampaignStatus transitions a campaign's lifecycle state.
//
//	POST /api/campaigns/{id}/status {"status": "ACTIVE"}
func (h *Handlers) SetCampaignStatus(w http.ResponseWriter, r *http.Request) {
	shop := shopDomain(r)
	if shop == "" {
		httputil.BadRequest(w, "shop domain is required")
		return
	}

	var req struct {
		Status domain.CampaignStatus `json:"status"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	err := h.campaigns.SetStatus(r.Context(), shop, chi.URLParam(r, "id"), req.Status)
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, campaign.ErrInvalidTransition), errors.Is(err, campaign.ErrNoRules):
		httputil.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		httputil.InternalError(w, err)
	default:
		httputil.OK(w, map[string]string{"status": string(req.Status)})
	}
}

// ListPriceChanges returns recent audit entries for a shop.
//
//	GET /api/audit/price-changes?shop=...&campaign_id=...&variant_id=...
func (h *Handlers) ListPriceChanges(w http.ResponseWriter, r *http.Request) {
	shop := shopDomain(r)
	if shop == "" {
		httputil.BadRequest(w, "shop domain is required")
		return
	}

	changes, err := h.audit.ListPriceChanges(r.Context(), shop, postgres.ResultsFilter{
		CampaignID: r.URL.Query().Get("campaign_id"),
		VariantID:  r.URL.Query().Get("variant_id"),
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"price_changes": changes})
}

// ListRuns returns recent processing run summaries for a shop.
//
//	GET /api/audit/runs?shop=...
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	shop := shopDomain(r)
	if shop == "" {
		httputil.BadRequest(w, "shop domain is required")
		return
	}

	runs, err := h.audit.ListRuns(r.Context(), shop, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"runs": runs})
}
