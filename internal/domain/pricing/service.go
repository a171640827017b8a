package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pricebook/internal/core/apperror"
	appctx "pricebook/internal/core/context"
	"pricebook/internal/core/entity"
	"pricebook/internal/core/id"
	"pricebook/internal/core/tx"
	"pricebook/internal/core/types"
	"pricebook/internal/domain"
	"pricebook/internal/domain/audit"
	"pricebook/pkg/logger"
	"pricebook/pkg/metrics"
)

const entityName = "price schedule"

var tracer = otel.Tracer("pricebook/pricing")

// Service owns the price schedule lifecycle and price resolution.
type Service struct {
	repo        Repository
	txManager   tx.Manager
	events      EventPublisher
	history     HistoryStore
	basePrices  BasePriceSource
	metrics     *metrics.Pricing
	clock       func() time.Time
	log         *logger.Logger
	hooks       *domain.HookRegistry[*PriceSchedule]
}

// ServiceConfig configures the pricing service. Only Repo is required.
type ServiceConfig struct {
	Repo      Repository
	TxManager tx.Manager

	// Events receives one event per committed mutation.
	Events EventPublisher

	// History, when set, records a field diff of every mutation in the same transaction.
	History HistoryStore

	// BasePrices, when set, answers resolutions that match no schedule.
	BasePrices BasePriceSource

	Metrics *metrics.Pricing
	Clock   func() time.Time
	Logger  *logger.Logger
}

// NewService creates the pricing service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		events:     cfg.Events,
		history:    cfg.History,
		basePrices: cfg.BasePrices,
		metrics:    cfg.Metrics,
		clock:      cfg.Clock,
		log:        cfg.Logger,
		hooks:      domain.NewHookRegistry[*PriceSchedule](),
	}
	if s.txManager == nil {
		s.txManager = tx.Direct{}
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	s.log = s.log.WithComponent("pricing")

	s.hooks.OnBeforeCreate(func(ctx context.Context, ps *PriceSchedule) error {
		return audit.EnrichCreatedBy(ctx, ps)
	})
	s.hooks.OnBeforeUpdate(func(ctx context.Context, ps *PriceSchedule) error {
		return audit.EnrichUpdatedBy(ctx, ps)
	})
	return s
}

// Hooks returns the hook registry for external registration.
func (s *Service) Hooks() *domain.HookRegistry[*PriceSchedule] {
	return s.hooks
}

// Today is the date statuses are computed for.
func (s *Service) Today() types.Date {
	return types.DateOf(s.clock())
}

// --- Reads ---

// GetByID returns a schedule with its status as of today.
func (s *Service) GetByID(ctx context.Context, scheduleID id.ID) (*PriceSchedule, error) {
	ps, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, s.normalizeGetErr(err, scheduleID)
	}
	if err := s.annotate(ctx, []*PriceSchedule{ps}); err != nil {
		return nil, err
	}
	return ps, nil
}

// ListByItem returns every schedule of the item, newest effective date first,
// each with its status as of today.
func (s *Service) ListByItem(ctx context.Context, itemID string) ([]*PriceSchedule, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, apperror.NewInvalidArgument("itemId", "item id is required")
	}
	list, err := s.loadItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	Annotate(list, s.Today())
	sort.SliceStable(list, func(i, j int) bool {
		if c := list[i].EffectiveDate.Compare(list[j].EffectiveDate); c != 0 {
			return c > 0
		}
		return list[i].CustomerKey() < list[j].CustomerKey()
	})
	return list, nil
}

// List returns a filtered page of schedules, each with its status as of today.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*PriceSchedule], error) {
	filter.Page = filter.Page.Normalize(50)
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return domain.ListResult[*PriceSchedule]{}, apperror.NewInvalidArgument("from", "from must not be after to")
	}
	if _, err := ParseOrderBy(filter.OrderBy); err != nil {
		return domain.ListResult[*PriceSchedule]{}, err
	}

	switch filter.Status {
	case "":
		res, err := s.repo.List(ctx, filter)
		if err != nil {
			return res, fmt.Errorf("list %s: %w", entityName, err)
		}
		return res, s.annotate(ctx, res.Items)

	case StatusCancelled:
		cancelled := true
		filter.Cancelled = &cancelled
		res, err := s.repo.List(ctx, filter)
		if err != nil {
			return res, fmt.Errorf("list %s: %w", entityName, err)
		}
		return res, nil

	default:
		// Computed statuses: load every live match, annotate, then page in memory.
		live := false
		page := filter.Page
		filter.Cancelled = &live
		filter.Page = domain.Page{OrderBy: page.OrderBy}
		all, err := s.repo.List(ctx, filter)
		if err != nil {
			return all, fmt.Errorf("list %s: %w", entityName, err)
		}
		if err := s.annotate(ctx, all.Items); err != nil {
			return all, err
		}
		matched := make([]*PriceSchedule, 0, len(all.Items))
		for _, ps := range all.Items {
			if ps.Status == filter.Status {
				matched = append(matched, ps)
			}
		}
		return domain.Paginate(matched, page), nil
	}
}

// History returns the recorded changes of a schedule, newest first. Deleted schedules
// keep their history.
func (s *Service) History(ctx context.Context, scheduleID id.ID, limit int) ([]HistoryEntry, error) {
	if s.history == nil {
		return nil, apperror.NewInvalidState("change history is not enabled")
	}
	switch {
	case limit <= 0:
		limit = 50
	case limit > 500:
		limit = 500
	}
	entries, err := s.history.ListHistory(ctx, scheduleID, limit)
	if err != nil {
		return nil, fmt.Errorf("history of %s %s: %w", entityName, scheduleID, err)
	}
	return entries, nil
}

// --- Writes ---

// Create validates and stores a new PENDING schedule.
func (s *Service) Create(ctx context.Context, in CreateInput) (*PriceSchedule, error) {
	ps, err := s.create(ctx, in)
	s.metrics.IncWrite("create", writeOutcome(err))
	return ps, err
}

func (s *Service) create(ctx context.Context, in CreateInput) (*PriceSchedule, error) {
	ps := &PriceSchedule{
		BaseRecord:    entity.NewBaseRecord(s.clock()),
		ItemID:        strings.TrimSpace(in.ItemID),
		EffectiveDate: in.EffectiveDate,
		BasePrice:     in.BasePrice,
		Discount1Pct:  cloneMoney(in.Discount1Pct),
		Discount2Pct:  cloneMoney(in.Discount2Pct),
		TaxPct:        cloneMoney(in.TaxPct),
		Notes:         in.Notes,
		Status:        StatusPending,
	}
	if in.CustomerID != nil {
		trimmed := strings.TrimSpace(*in.CustomerID)
		ps.CustomerID = &trimmed
	}

	if err := ps.Validate(ctx); err != nil {
		return nil, err
	}
	if err := recompute(ps); err != nil {
		return nil, err
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, ps); err != nil {
		return nil, err
	}

	wctx := WithoutSharedCache(ctx)
	err := s.txManager.RunInTransaction(wctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, ps); err != nil {
			return fmt.Errorf("create %s: %w", entityName, err)
		}
		return s.publish(ctx, EventCreated, nil, ps)
	})
	if err != nil {
		return nil, s.normalizeWriteErr(err, ps)
	}
	s.afterWrite(ctx, ps.ItemID)
	s.runAfter(ctx, domain.AfterCreate, ps)

	s.log.WithContext(ctx).Infow("price schedule created",
		"schedule_id", ps.ID, "item_id", ps.ItemID, "effective_date", ps.EffectiveDate.String())

	if err := s.annotate(ctx, []*PriceSchedule{ps}); err != nil {
		return nil, err
	}
	return ps, nil
}

// Update applies a partial change. Item, customer and effective date may only change
// while the schedule is PENDING; a cancelled schedule accepts no change at all.
func (s *Service) Update(ctx context.Context, scheduleID id.ID, patch Patch) (*PriceSchedule, error) {
	ps, err := s.update(ctx, scheduleID, patch)
	s.metrics.IncWrite("update", writeOutcome(err))
	return ps, err
}

func (s *Service) update(ctx context.Context, scheduleID id.ID, patch Patch) (*PriceSchedule, error) {
	var prevItem string
	var next *PriceSchedule

	wctx := WithoutSharedCache(ctx)
	err := s.txManager.RunInTransaction(wctx, func(ctx context.Context) error {
		cur, status, err := s.loadWithStatus(ctx, scheduleID)
		if err != nil {
			return err
		}
		if status == StatusCancelled {
			return apperror.NewInvalidState("cancelled price schedule cannot be modified").
				WithDetail("id", scheduleID.String())
		}
		if patch.ExpectedVersion != nil && *patch.ExpectedVersion != cur.Version {
			return apperror.NewConcurrentModification(entityName, scheduleID.String())
		}

		next = cur.Clone()
		patch.apply(next)
		if status != StatusPending && keyChanged(cur, next) {
			return apperror.NewInvalidState(
				fmt.Sprintf("item, customer and effective date are fixed once a schedule is %s", status)).
				WithDetail("id", scheduleID.String()).
				WithDetail("status", string(status))
		}
		if err := next.Validate(ctx); err != nil {
			return err
		}
		if err := recompute(next); err != nil {
			return err
		}
		next.UpdatedAt = s.clock().UTC()
		if err := s.hooks.Run(ctx, domain.BeforeUpdate, next); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, next); err != nil {
			return fmt.Errorf("update %s: %w", entityName, err)
		}
		prevItem = cur.ItemID
		return s.publish(ctx, EventUpdated, cur, next)
	})
	if err != nil {
		return nil, s.normalizeWriteErr(err, next)
	}

	s.afterWrite(ctx, prevItem, next.ItemID)
	s.runAfter(ctx, domain.AfterUpdate, next)
	if err := s.annotate(ctx, []*PriceSchedule{next}); err != nil {
		return nil, err
	}
	return next, nil
}

// Cancel moves a PENDING or ACTIVE schedule to CANCELLED. reason is optional.
func (s *Service) Cancel(ctx context.Context, scheduleID id.ID, reason *string) (*PriceSchedule, error) {
	ps, err := s.cancel(ctx, scheduleID, reason)
	s.metrics.IncWrite("cancel", writeOutcome(err))
	return ps, err
}

func (s *Service) cancel(ctx context.Context, scheduleID id.ID, reason *string) (*PriceSchedule, error) {
	var next *PriceSchedule

	wctx := WithoutSharedCache(ctx)
	err := s.txManager.RunInTransaction(wctx, func(ctx context.Context) error {
		cur, status, err := s.loadWithStatus(ctx, scheduleID)
		if err != nil {
			return err
		}
		to, err := Transition(status, StatusCancelled)
		if err != nil {
			return err
		}

		next = cur.Clone()
		next.Status = to
		next.CancelReason = nil
		if reason != nil {
			if r := strings.TrimSpace(*reason); r != "" {
				next.CancelReason = &r
			}
		}
		if err := next.Validate(ctx); err != nil {
			return err
		}
		next.UpdatedAt = s.clock().UTC()
		if err := s.hooks.Run(ctx, domain.BeforeUpdate, next); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, next); err != nil {
			return fmt.Errorf("cancel %s: %w", entityName, err)
		}
		return s.publish(ctx, EventCancelled, cur, next)
	})
	if err != nil {
		return nil, s.normalizeWriteErr(err, next)
	}

	s.afterWrite(ctx, next.ItemID)
	s.runAfter(ctx, domain.AfterUpdate, next)
	s.log.WithContext(ctx).Infow("price schedule cancelled", "schedule_id", next.ID, "item_id", next.ItemID)
	return next, nil
}

// Delete physically removes a schedule that is still PENDING.
func (s *Service) Delete(ctx context.Context, scheduleID id.ID) error {
	err := s.delete(ctx, scheduleID)
	s.metrics.IncWrite("delete", writeOutcome(err))
	return err
}

func (s *Service) delete(ctx context.Context, scheduleID id.ID) error {
	var cur *PriceSchedule

	wctx := WithoutSharedCache(ctx)
	err := s.txManager.RunInTransaction(wctx, func(ctx context.Context) error {
		var status Status
		var err error
		cur, status, err = s.loadWithStatus(ctx, scheduleID)
		if err != nil {
			return err
		}
		if status != StatusPending {
			return apperror.NewInvalidState(
				fmt.Sprintf("only PENDING schedules can be deleted, this one is %s", status)).
				WithDetail("id", scheduleID.String()).
				WithDetail("status", string(status))
		}
		if err := s.hooks.Run(ctx, domain.BeforeDelete, cur); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, scheduleID); err != nil {
			return fmt.Errorf("delete %s: %w", entityName, err)
		}
		return s.publish(ctx, EventDeleted, cur, nil)
	})
	if err != nil {
		return s.normalizeWriteErr(err, cur)
	}

	s.afterWrite(ctx, cur.ItemID)
	s.runAfter(ctx, domain.AfterDelete, cur)
	return nil
}

// BulkCreate creates every row independently and reports per-row outcomes.
// A failing row never aborts the rest.
func (s *Service) BulkCreate(ctx context.Context, rows []CreateInput) BulkReport {
	report := BulkReport{Rows: make([]BulkRowResult, 0, len(rows))}
	for i, row := range rows {
		res := BulkRowResult{Row: i + 1}
		ps, err := s.Create(ctx, row)
		if err != nil {
			res.Error = err
			report.Failed++
		} else {
			res.ID = ps.ID.String()
			res.Item = ps
			report.Created++
		}
		report.Rows = append(report.Rows, res)
	}
	if report.Failed > 0 {
		s.log.WithContext(ctx).Warnw("bulk import finished with failures",
			"created", report.Created, "failed", report.Failed)
	}
	return report
}

// --- Resolution ---

// ResolveEffectivePrice returns the price that applies to q. A zero q.AsOf means today.
// When nothing applies the error is NOT_FOUND, unless a base price source answers.
func (s *Service) ResolveEffectivePrice(ctx context.Context, q Query) (*EffectivePrice, error) {
	start := time.Now()
	q.ItemID = strings.TrimSpace(q.ItemID)
	if q.CustomerID != nil {
		if c := strings.TrimSpace(*q.CustomerID); c == "" {
			q.CustomerID = nil
		} else {
			q.CustomerID = &c
		}
	}
	if q.AsOf.IsZero() {
		q.AsOf = s.Today()
	}

	ctx, span := tracer.Start(ctx, "pricing.resolve",
		trace.WithAttributes(
			attribute.String("pricing.item_id", q.ItemID),
			attribute.String("pricing.as_of", q.AsOf.String()),
			attribute.Bool("pricing.has_customer", q.CustomerID != nil),
		))
	defer span.End()

	ep, err := s.resolve(ctx, q)

	outcome := metrics.OutcomeOK
	switch {
	case apperror.IsNotFound(err):
		outcome = metrics.OutcomeNotFound
	case err != nil:
		outcome = metrics.OutcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	var source, scope string
	if ep != nil {
		source, scope = string(ep.Source), string(ep.Scope)
		span.SetAttributes(attribute.String("pricing.source", source))
	}
	s.metrics.ObserveResolution(outcome, source, scope, time.Since(start))
	return ep, err
}

func (s *Service) resolve(ctx context.Context, q Query) (*EffectivePrice, error) {
	if q.ItemID == "" {
		return nil, apperror.NewInvalidArgument("itemId", "item id is required")
	}

	schedules, err := s.loadItem(ctx, q.ItemID)
	if err != nil {
		return nil, err
	}
	if winner, scope, ok := Resolve(schedules, q); ok {
		return priceFromSchedule(winner, scope, q)
	}

	if s.basePrices != nil {
		base, found, err := s.basePrices.BasePrice(ctx, q.ItemID)
		if err != nil {
			return nil, fmt.Errorf("base price of %s: %w", q.ItemID, err)
		}
		if found {
			return priceFromBase(base, q), nil
		}
	}
	return nil, apperror.NewNotFound("effective price", q.ItemID).
		WithDetail("asOf", q.AsOf.String())
}

// BatchLine is the outcome of one line of ResolveBatch.
type BatchLine struct {
	Query Query
	Price *EffectivePrice
	Err   error
}

// ResolveBatch resolves many lines sharing one request cache, so each item's schedules
// are read once per batch.
func (s *Service) ResolveBatch(ctx context.Context, queries []Query) []BatchLine {
	ctx = WithRequestCache(ctx)
	out := make([]BatchLine, len(queries))
	for i, q := range queries {
		ep, err := s.ResolveEffectivePrice(ctx, q)
		out[i] = BatchLine{Query: q, Price: ep, Err: err}
	}
	return out
}

// --- helpers ---

// loadItem returns a private copy of the item's schedules, consulting the request cache.
func (s *Service) loadItem(ctx context.Context, itemID string) ([]*PriceSchedule, error) {
	rc := cacheFrom(ctx)
	if list, ok := rc.get(itemID); ok {
		return cloneAll(list), nil
	}
	list, err := s.repo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list schedules of item %s: %w", itemID, err)
	}
	if rc != nil {
		rc.put(itemID, cloneAll(list))
	}
	return list, nil
}

// loadWithStatus reads a schedule and computes its current status from its siblings.
func (s *Service) loadWithStatus(ctx context.Context, scheduleID id.ID) (*PriceSchedule, Status, error) {
	cur, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, "", s.normalizeGetErr(err, scheduleID)
	}
	siblings, err := s.repo.ListByItem(ctx, cur.ItemID)
	if err != nil {
		return nil, "", fmt.Errorf("list schedules of item %s: %w", cur.ItemID, err)
	}
	return cur, EffectiveStatus(cur, siblings, s.Today()), nil
}

// annotate sets the status as of today on each schedule, loading siblings per item.
func (s *Service) annotate(ctx context.Context, items []*PriceSchedule) error {
	today := s.Today()
	ctx = WithRequestCache(ctx)
	for _, ps := range items {
		siblings, err := s.loadItem(ctx, ps.ItemID)
		if err != nil {
			return err
		}
		ps.Status = EffectiveStatus(ps, siblings, today)
	}
	return nil
}

// publish emits the event for a mutation from prev to next and records its history.
// prev is nil for creations, next is nil for deletions.
func (s *Service) publish(ctx context.Context, typ EventType, prev, next *PriceSchedule) error {
	ps := next
	if ps == nil {
		ps = prev
	}
	now := s.clock().UTC()
	if err := s.events.Publish(ctx, Event{Type: typ, Schedule: ps.Clone(), OccurredAt: now}); err != nil {
		return fmt.Errorf("publish %s: %w", typ, err)
	}
	if s.history == nil {
		return nil
	}

	changes, err := Diff(prev, next)
	if err != nil {
		return fmt.Errorf("diff %s: %w", entityName, err)
	}
	entry := &HistoryEntry{
		ID:         id.New(),
		ScheduleID: ps.ID,
		Action:     typ,
		UserID:     appctx.GetUserID(ctx),
		Changes:    changes,
		CreatedAt:  now,
	}
	if err := s.history.Record(ctx, entry); err != nil {
		return fmt.Errorf("record history of %s: %w", entityName, err)
	}
	return nil
}

// afterWrite drops request-cached lists of the touched items. Shared caches need no
// call: they key on the item generation the write has already advanced.
func (s *Service) afterWrite(ctx context.Context, itemIDs ...string) {
	cacheFrom(ctx).drop(itemIDs...)
}

// runAfter executes after-hooks outside the transaction. Failures are logged only,
// since the write is already committed.
func (s *Service) runAfter(ctx context.Context, event domain.HookEvent, ps *PriceSchedule) {
	if err := s.hooks.Run(ctx, event, ps); err != nil {
		s.log.WithContext(ctx).Warnw("after hook failed", "event", string(event), "schedule_id", ps.ID, "error", err)
	}
}

func (s *Service) normalizeGetErr(err error, scheduleID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(entityName, scheduleID.String())
	}
	if apperror.IsAppError(err) {
		return err
	}
	return fmt.Errorf("get %s %s: %w", entityName, scheduleID, err)
}

// normalizeWriteErr attaches the conflicting key to duplicate errors.
func (s *Service) normalizeWriteErr(err error, ps *PriceSchedule) error {
	if ps != nil && apperror.HasCode(err, apperror.CodeDuplicate) {
		return apperror.NewDuplicate(entityName, "itemId+customerId+effectiveDate", ps.EffectiveDate.String()).
			WithDetail("itemId", ps.ItemID).
			WithDetail("customerId", ps.CustomerKey()).
			WithCause(err)
	}
	return err
}

func writeOutcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	if apperror.IsAppError(err) && apperror.GetHTTPStatus(err) < 500 {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
