package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/http/v1/dto"
)

// PricingHandler serves price resolution.
type PricingHandler struct {
	*BaseHandler
	service *pricing.Service
}

// NewPricingHandler creates a new resolution handler.
func NewPricingHandler(base *BaseHandler, service *pricing.Service) *PricingHandler {
	return &PricingHandler{BaseHandler: base, service: service}
}

// Effective handles GET /prices/effective?itemId=&date=&customerId=
func (h *PricingHandler) Effective(c *gin.Context) {
	var q dto.EffectivePriceQuery
	if !h.BindQuery(c, &q) {
		return
	}
	asOf, ok := h.ParseDateQuery(c, "date", q.Date)
	if !ok {
		return
	}

	query := pricing.Query{ItemID: q.ItemID, AsOf: asOf}
	if customer := strings.TrimSpace(q.CustomerID); customer != "" {
		query.CustomerID = &customer
	}

	ep, err := h.service.ResolveEffectivePrice(c.Request.Context(), query)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ep)
}

// Batch handles POST /prices/effective/batch
func (h *PricingHandler) Batch(c *gin.Context) {
	var req dto.BatchResolveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.OK(c, dto.FromBatch(h.service.ResolveBatch(c.Request.Context(), req.ToQueries())))
}
