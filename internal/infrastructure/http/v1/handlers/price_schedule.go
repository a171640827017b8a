package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pricebook/internal/core/apperror"
	"pricebook/internal/domain"
	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/http/v1/dto"
)

// PriceScheduleHandler serves schedule CRUD and lifecycle endpoints.
type PriceScheduleHandler struct {
	*BaseHandler
	service *pricing.Service
}

// NewPriceScheduleHandler creates a new schedule handler.
func NewPriceScheduleHandler(base *BaseHandler, service *pricing.Service) *PriceScheduleHandler {
	return &PriceScheduleHandler{BaseHandler: base, service: service}
}

// List handles GET /price-schedules
func (h *PriceScheduleHandler) List(c *gin.Context) {
	var q dto.ListSchedulesQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := pricing.ListFilter{
		ItemID: strings.TrimSpace(q.ItemID),
		Scope:  pricing.Scope(q.Scope),
		Page:   domain.Page{Limit: q.Limit, Offset: q.Offset, OrderBy: q.OrderBy},
	}
	if customer := strings.TrimSpace(q.CustomerID); customer != "" {
		filter.CustomerID = &customer
	}
	if q.Status != "" {
		st, ok := pricing.ParseStatus(q.Status)
		if !ok {
			h.Error(c, apperror.NewInvalidArgument("status", "unknown status: "+q.Status))
			return
		}
		filter.Status = st
	}
	var ok bool
	if filter.From, ok = h.ParseDateQuery(c, "from", q.From); !ok {
		return
	}
	if filter.To, ok = h.ParseDateQuery(c, "to", q.To); !ok {
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(res, dto.FromSchedule))
}

// ListByItem handles GET /items/:itemId/price-schedules
func (h *PriceScheduleHandler) ListByItem(c *gin.Context) {
	list, err := h.service.ListByItem(c.Request.Context(), c.Param("itemId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": dto.FromSchedules(list)})
}

// History handles GET /price-schedules/:id/history
func (h *PriceScheduleHandler) History(c *gin.Context) {
	scheduleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	entries, err := h.service.History(c.Request.Context(), scheduleID, q.Limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": dto.FromHistory(entries)})
}

// Get handles GET /price-schedules/:id
func (h *PriceScheduleHandler) Get(c *gin.Context) {
	scheduleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	ps, err := h.service.GetByID(c.Request.Context(), scheduleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSchedule(ps))
}

// Create handles POST /price-schedules
func (h *PriceScheduleHandler) Create(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ps, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromSchedule(ps))
}

// BulkCreate handles POST /price-schedules/bulk. Row failures are reported in the body;
// the response is 200 even when some rows fail.
func (h *PriceScheduleHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkCreateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	rows := make([]pricing.CreateInput, len(req.Rows))
	for i := range req.Rows {
		rows[i] = req.Rows[i].ToInput()
	}
	h.OK(c, dto.FromBulkReport(h.service.BulkCreate(c.Request.Context(), rows)))
}

// Update handles PATCH /price-schedules/:id
func (h *PriceScheduleHandler) Update(c *gin.Context) {
	scheduleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateScheduleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ps, err := h.service.Update(c.Request.Context(), scheduleID, req.ToPatch())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSchedule(ps))
}

// Cancel handles POST /price-schedules/:id/cancel
func (h *PriceScheduleHandler) Cancel(c *gin.Context) {
	scheduleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelScheduleRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	ps, err := h.service.Cancel(c.Request.Context(), scheduleID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSchedule(ps))
}

// Delete handles DELETE /price-schedules/:id
func (h *PriceScheduleHandler) Delete(c *gin.Context) {
	scheduleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), scheduleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
