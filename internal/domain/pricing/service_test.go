package pricing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pricebook/internal/core/apperror"
	appctx "pricebook/internal/core/context"
	"pricebook/internal/core/id"
	"pricebook/internal/core/types"
	"pricebook/internal/domain"
	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/storage/memory"
	"pricebook/pkg/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []pricing.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e pricing.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []pricing.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]pricing.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// countingStore counts ListByItem calls.
type countingStore struct {
	*memory.ScheduleStore
	mu        sync.Mutex
	listCalls int
}

func (c *countingStore) ListByItem(ctx context.Context, itemID string) ([]*pricing.PriceSchedule, error) {
	c.mu.Lock()
	c.listCalls++
	c.mu.Unlock()
	return c.ScheduleStore.ListByItem(ctx, itemID)
}

type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	store  *countingStore
	events *recordingPublisher
	svc    *pricing.Service
}

func TestService(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	s.store = &countingStore{ScheduleStore: memory.NewScheduleStore()}
	s.events = &recordingPublisher{}
	s.svc = pricing.NewService(pricing.ServiceConfig{
		Repo:   s.store,
		Events: s.events,
		Clock:  func() time.Time { return s.now },
		Logger: logger.Nop(),
	})
}

func (s *ServiceSuite) create(item string, customer *string, date string, base string) *pricing.PriceSchedule {
	ps, err := s.svc.Create(s.ctx, pricing.CreateInput{
		ItemID:        item,
		CustomerID:    customer,
		EffectiveDate: types.MustDate(date),
		BasePrice:     types.MustMoney(base),
	})
	s.Require().NoError(err)
	return ps
}

func ptr[T any](v T) *T { return &v }

func (s *ServiceSuite) TestCreate_ComputesDerivedPricesAndStatus() {
	ps, err := s.svc.Create(s.ctx, pricing.CreateInput{
		ItemID:        " SKU-1 ",
		EffectiveDate: types.MustDate("2024-07-01"),
		BasePrice:     types.MustMoney("12000"),
		Discount1Pct:  types.MoneyPtr("5"),
		Discount2Pct:  types.MoneyPtr("2"),
		TaxPct:        types.MoneyPtr("11"),
	})
	s.Require().NoError(err)

	s.Equal("SKU-1", ps.ItemID)
	s.Equal("11400.00", ps.PriceAfterDiscount1.StringFixed(2))
	s.Equal("11172.00", ps.PriceAfterDiscount2.StringFixed(2))
	s.Equal(pricing.StatusPending, ps.Status)
	s.Equal(1, ps.Version)
	s.Equal([]pricing.EventType{pricing.EventCreated}, s.events.types())
	gen, err := s.store.ItemGeneration(s.ctx, "SKU-1")
	s.Require().NoError(err)
	s.EqualValues(1, gen)

	stored, err := s.store.GetByID(s.ctx, ps.ID)
	s.Require().NoError(err)
	s.Equal(pricing.StatusPending, stored.Status, "only PENDING is persisted on create")
}

func (s *ServiceSuite) TestCreate_BackdatedIsActiveImmediately() {
	ps := s.create("SKU-1", nil, "2024-01-01", "10")
	s.Equal(pricing.StatusActive, ps.Status)
}

func (s *ServiceSuite) TestCreate_SetsAuditFieldsFromUser() {
	ctx := appctx.WithUser(s.ctx, &appctx.UserContext{UserID: "alice"})
	ps, err := s.svc.Create(ctx, pricing.CreateInput{
		ItemID: "SKU-1", EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("1"),
	})
	s.Require().NoError(err)
	s.Equal("alice", ps.CreatedBy)
	s.Equal("alice", ps.UpdatedBy)
}

func (s *ServiceSuite) TestCreate_ValidationReportsAllFields() {
	_, err := s.svc.Create(s.ctx, pricing.CreateInput{
		BasePrice:    types.MustMoney("-5"),
		Discount1Pct: types.MoneyPtr("120"),
	})
	s.Require().Error(err)

	fields := map[string]bool{}
	for _, fe := range apperror.FieldErrors(err) {
		fields[fe.Field] = true
	}
	s.Equal(map[string]bool{"itemId": true, "effectiveDate": true, "basePrice": true, "discount1Pct": true}, fields)
	s.Empty(s.events.types())
}

func (s *ServiceSuite) TestWrite_RejectsValuesBeyondStoredPrecision() {
	_, err := s.svc.Create(s.ctx, pricing.CreateInput{
		ItemID:        "SKU-1",
		EffectiveDate: types.MustDate("2024-07-01"),
		BasePrice:     types.MustMoney("10.005"),
		Discount1Pct:  types.MoneyPtr("12.34567"),
	})
	s.Require().Error(err)
	s.ElementsMatch([]string{"basePrice", "discount1Pct"}, fieldNames(err))

	_, err = s.svc.Create(s.ctx, pricing.CreateInput{
		ItemID:        "SKU-1",
		EffectiveDate: types.MustDate("2024-07-01"),
		BasePrice:     types.MustMoney("10000000000000000"),
	})
	s.Equal([]string{"basePrice"}, fieldNames(err))

	ps := s.create("SKU-1", nil, "2024-07-01", "10.01")
	_, err = s.svc.Update(s.ctx, ps.ID, pricing.Patch{TaxPct: types.MoneyPtr("100.0000000000000000001")})
	s.Equal([]string{"taxPct"}, fieldNames(err))
	s.Equal([]pricing.EventType{pricing.EventCreated}, s.events.types())
}

func fieldNames(err error) []string {
	var out []string
	for _, fe := range apperror.FieldErrors(err) {
		out = append(out, fe.Field)
	}
	return out
}

func (s *ServiceSuite) TestCreate_DuplicateTripleConflicts() {
	s.create("SKU-1", ptr("C1"), "2024-07-01", "10")

	_, err := s.svc.Create(s.ctx, pricing.CreateInput{
		ItemID: "SKU-1", CustomerID: ptr("C1"), EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("11"),
	})
	s.True(apperror.IsConflict(err))

	// Same date in another scope is fine.
	s.create("SKU-1", nil, "2024-07-01", "12")
	s.create("SKU-1", ptr("C2"), "2024-07-01", "12")
}

func (s *ServiceSuite) TestCreate_CancelledDoesNotBlockRecreation() {
	ps := s.create("SKU-1", nil, "2024-07-01", "10")
	_, err := s.svc.Cancel(s.ctx, ps.ID, nil)
	s.Require().NoError(err)

	again := s.create("SKU-1", nil, "2024-07-01", "11")
	s.NotEqual(ps.ID, again.ID)
}

func (s *ServiceSuite) TestResolve_PrecedenceAndDates() {
	s.create("SKU-1", nil, "2024-01-01", "100")
	global := s.create("SKU-1", nil, "2024-05-01", "90")
	cust := s.create("SKU-1", ptr("C1"), "2024-02-01", "80")
	s.create("SKU-1", nil, "2024-12-01", "70")

	ep, err := s.svc.ResolveEffectivePrice(s.ctx, pricing.Query{ItemID: "SKU-1"})
	s.Require().NoError(err)
	s.Equal(global.ID, *ep.ScheduleID)
	s.Equal(types.MustDate("2024-06-15"), ep.AsOf, "zero date means today")
	s.Equal(pricing.ScopeGlobal, ep.Scope)

	ep, err = s.svc.ResolveEffectivePrice(s.ctx, pricing.Query{ItemID: "SKU-1", CustomerID: ptr("C1"), AsOf: types.MustDate("2024-06-01")})
	s.Require().NoError(err)
	s.Equal(cust.ID, *ep.ScheduleID)
	s.Equal(pricing.SourceScheduled, ep.Source)
	s.Equal("80.00", ep.PriceAfterDiscount2.StringFixed(2))

	_, err = s.svc.ResolveEffectivePrice(s.ctx, pricing.Query{ItemID: "SKU-1", AsOf: types.MustDate("2023-12-31")})
	s.True(apperror.IsNotFound(err))

	_, err = s.svc.ResolveEffectivePrice(s.ctx, pricing.Query{ItemID: "  "})
	s.True(apperror.IsValidation(err))
}

func (s *ServiceSuite) TestResolve_CancelledExcluded() {
	s.create("SKU-1", nil, "2024-01-01", "100")
	newer := s.create("SKU-1", nil, "2024-03-01", "90")

	_, err := s.svc.Cancel(s.ctx, newer.ID, ptr("wrong price"))
	s.Require().NoError(err)

	ep, err := s.svc.ResolveEffectivePrice(s.ctx, pricing.Query{ItemID: "SKU-1"})
	s.Require().NoError(err)
	s.Equal("100", ep.BasePrice.String())
}

func (s *ServiceSuite) TestResolve_BasePriceFallback() {
	svc := pricing.NewService(pricing.ServiceConfig{
		Repo:       memory.NewScheduleStore(),
		BasePrices: pricing.StaticBasePrices{"SKU-9": types.MustMoney("42.5")},
		Clock:      func() time.Time { return s.now },
		Logger:     logger.Nop(),
	})

	ep, err := svc.ResolveEffectivePrice(s.ctx, pricing.Query{ItemID: "SKU-9"})
	s.Require().NoError(err)
	s.Equal(pricing.SourceBase, ep.Source)
	s.Equal("42.50", ep.PriceAfterDiscount2.StringFixed(2))

	_, err = svc.ResolveEffectivePrice(s.ctx, pricing.Query{ItemID: "SKU-0"})
	s.True(apperror.IsNotFound(err))
}

func (s *ServiceSuite) TestResolveBatch_SharesReads() {
	s.create("SKU-1", nil, "2024-01-01", "100")
	s.create("SKU-2", nil, "2024-01-01", "200")
	before := s.store.listCalls

	lines := s.svc.ResolveBatch(s.ctx, []pricing.Query{
		{ItemID: "SKU-1"},
		{ItemID: "SKU-1", CustomerID: ptr("C1")},
		{ItemID: "SKU-2"},
		{ItemID: "SKU-3"},
	})

	s.Len(lines, 4)
	s.NoError(lines[0].Err)
	s.NoError(lines[1].Err)
	s.Equal("200", lines[2].Price.BasePrice.String())
	s.True(apperror.IsNotFound(lines[3].Err))
	s.Equal(3, s.store.listCalls-before, "one store read per distinct item")
}

func (s *ServiceSuite) TestUpdate_PendingMayChangeKey() {
	ps := s.create("SKU-1", nil, "2024-07-01", "10")

	updated, err := s.svc.Update(s.ctx, ps.ID, pricing.Patch{
		CustomerID:    ptr("C1"),
		EffectiveDate: ptr(types.MustDate("2024-08-01")),
		Discount1Pct:  types.MoneyPtr("10"),
	})
	s.Require().NoError(err)
	s.Equal("C1", *updated.CustomerID)
	s.Equal("2024-08-01", updated.EffectiveDate.String())
	s.Equal("9.00", updated.PriceAfterDiscount1.StringFixed(2))
	s.Equal(2, updated.Version)
	s.Equal([]pricing.EventType{pricing.EventCreated, pricing.EventUpdated}, s.events.types())

	global, err := s.svc.Update(s.ctx, ps.ID, pricing.Patch{CustomerID: ptr("")})
	s.Require().NoError(err)
	s.Nil(global.CustomerID)
}

func (s *ServiceSuite) TestUpdate_ActiveKeyIsFixedButPriceIsNot() {
	ps := s.create("SKU-1", nil, "2024-01-01", "10")
	s.Require().Equal(pricing.StatusActive, ps.Status)

	_, err := s.svc.Update(s.ctx, ps.ID, pricing.Patch{EffectiveDate: ptr(types.MustDate("2024-02-01"))})
	s.True(apperror.IsInvalidState(err))

	_, err = s.svc.Update(s.ctx, ps.ID, pricing.Patch{ItemID: ptr("SKU-2")})
	s.True(apperror.IsInvalidState(err))

	updated, err := s.svc.Update(s.ctx, ps.ID, pricing.Patch{BasePrice: ptr(types.MustMoney("12")), Notes: ptr("raised")})
	s.Require().NoError(err)
	s.Equal("12.00", updated.PriceAfterDiscount2.StringFixed(2))
	s.Equal(pricing.StatusActive, updated.Status)
}

func (s *ServiceSuite) TestUpdate_ExpiredKeyIsFixed() {
	old := s.create("SKU-1", nil, "2024-01-01", "10")
	s.create("SKU-1", nil, "2024-02-01", "11")

	_, err := s.svc.Update(s.ctx, old.ID, pricing.Patch{EffectiveDate: ptr(types.MustDate("2024-01-02"))})
	s.True(apperror.IsInvalidState(err))
}

func (s *ServiceSuite) TestUpdate_CancelledRejectsEverything() {
	ps := s.create("SKU-1", nil, "2024-07-01", "10")
	_, err := s.svc.Cancel(s.ctx, ps.ID, nil)
	s.Require().NoError(err)

	_, err = s.svc.Update(s.ctx, ps.ID, pricing.Patch{Notes: ptr("hello")})
	s.True(apperror.IsInvalidState(err))
}

func (s *ServiceSuite) TestUpdate_StaleVersion() {
	ps := s.create("SKU-1", nil, "2024-07-01", "10")

	_, err := s.svc.Update(s.ctx, ps.ID, pricing.Patch{Notes: ptr("a"), ExpectedVersion: ptr(1)})
	s.Require().NoError(err)

	_, err = s.svc.Update(s.ctx, ps.ID, pricing.Patch{Notes: ptr("b"), ExpectedVersion: ptr(1)})
	s.True(apperror.IsConcurrentModification(err))
}

func (s *ServiceSuite) TestUpdate_CollidingKeyConflicts() {
	s.create("SKU-1", nil, "2024-07-01", "10")
	other := s.create("SKU-1", nil, "2024-08-01", "11")

	_, err := s.svc.Update(s.ctx, other.ID, pricing.Patch{EffectiveDate: ptr(types.MustDate("2024-07-01"))})
	s.True(apperror.IsConflict(err))
}

func (s *ServiceSuite) TestUpdate_InvalidPatchAndMissing() {
	ps := s.create("SKU-1", nil, "2024-07-01", "10")

	_, err := s.svc.Update(s.ctx, ps.ID, pricing.Patch{Discount2Pct: types.MoneyPtr("101")})
	s.True(apperror.IsValidation(err))

	_, err = s.svc.Update(s.ctx, id.New(), pricing.Patch{Notes: ptr("x")})
	s.True(apperror.IsNotFound(err))
}

func (s *ServiceSuite) TestCancel_Transitions() {
	pending := s.create("SKU-1", nil, "2024-07-01", "10")
	active := s.create("SKU-2", nil, "2024-01-01", "10")
	expired := s.create("SKU-3", nil, "2024-01-01", "10")
	s.create("SKU-3", nil, "2024-02-01", "10")

	got, err := s.svc.Cancel(s.ctx, pending.ID, ptr("  supplier withdrew  "))
	s.Require().NoError(err)
	s.Equal(pricing.StatusCancelled, got.Status)
	s.Equal("supplier withdrew", *got.CancelReason)

	got, err = s.svc.Cancel(s.ctx, active.ID, nil)
	s.Require().NoError(err)
	s.Nil(got.CancelReason)

	_, err = s.svc.Cancel(s.ctx, expired.ID, nil)
	s.True(apperror.IsInvalidTransition(err))

	_, err = s.svc.Cancel(s.ctx, pending.ID, nil)
	s.True(apperror.IsInvalidTransition(err), "cancellation is one-way")
}

func (s *ServiceSuite) TestCancel_ReasonTooLong() {
	ps := s.create("SKU-1", nil, "2024-07-01", "10")
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'r'
	}
	_, err := s.svc.Cancel(s.ctx, ps.ID, ptr(string(long)))
	s.True(apperror.IsValidation(err))
}

func (s *ServiceSuite) TestDelete_OnlyPending() {
	pending := s.create("SKU-1", nil, "2024-07-01", "10")
	active := s.create("SKU-1", nil, "2024-01-01", "10")

	s.Require().NoError(s.svc.Delete(s.ctx, pending.ID))
	_, err := s.svc.GetByID(s.ctx, pending.ID)
	s.True(apperror.IsNotFound(err))

	s.True(apperror.IsInvalidState(s.svc.Delete(s.ctx, active.ID)))

	cancelledFuture := s.create("SKU-2", nil, "2024-09-01", "10")
	_, err = s.svc.Cancel(s.ctx, cancelledFuture.ID, nil)
	s.Require().NoError(err)
	s.True(apperror.IsInvalidState(s.svc.Delete(s.ctx, cancelledFuture.ID)))

	s.True(apperror.IsNotFound(s.svc.Delete(s.ctx, id.New())))
	s.Contains(s.events.types(), pricing.EventDeleted)
}

func (s *ServiceSuite) TestStatusFollowsClock() {
	ps := s.create("SKU-1", nil, "2024-07-01", "10")
	s.Equal(pricing.StatusPending, ps.Status)

	s.now = time.Date(2024, 7, 1, 0, 0, 1, 0, time.UTC)
	got, err := s.svc.GetByID(s.ctx, ps.ID)
	s.Require().NoError(err)
	s.Equal(pricing.StatusActive, got.Status)
}

func (s *ServiceSuite) TestListByItem_AnnotatedAndOrdered() {
	s.create("SKU-1", nil, "2024-01-01", "10")
	s.create("SKU-1", nil, "2024-03-01", "11")
	s.create("SKU-1", nil, "2024-09-01", "12")
	s.create("SKU-2", nil, "2024-01-01", "99")

	list, err := s.svc.ListByItem(s.ctx, "SKU-1")
	s.Require().NoError(err)
	s.Require().Len(list, 3)

	s.Equal("2024-09-01", list[0].EffectiveDate.String())
	s.Equal(pricing.StatusPending, list[0].Status)
	s.Equal(pricing.StatusActive, list[1].Status)
	s.Equal(pricing.StatusExpired, list[2].Status)
}

func (s *ServiceSuite) TestList_FiltersByComputedStatus() {
	s.create("SKU-1", nil, "2024-01-01", "10")
	s.create("SKU-1", nil, "2024-03-01", "11")
	s.create("SKU-1", nil, "2024-09-01", "12")
	toCancel := s.create("SKU-1", nil, "2024-10-01", "13")
	_, err := s.svc.Cancel(s.ctx, toCancel.ID, nil)
	s.Require().NoError(err)

	res, err := s.svc.List(s.ctx, pricing.ListFilter{ItemID: "SKU-1", Status: pricing.StatusExpired})
	s.Require().NoError(err)
	s.Equal(int64(1), res.TotalCount)
	s.Equal("2024-01-01", res.Items[0].EffectiveDate.String())

	res, err = s.svc.List(s.ctx, pricing.ListFilter{Status: pricing.StatusCancelled})
	s.Require().NoError(err)
	s.Equal(int64(1), res.TotalCount)

	res, err = s.svc.List(s.ctx, pricing.ListFilter{Page: domain.Page{Limit: 2, OrderBy: "effectiveDate"}})
	s.Require().NoError(err)
	s.Equal(int64(4), res.TotalCount)
	s.Len(res.Items, 2)
	s.Equal(pricing.StatusExpired, res.Items[0].Status)
	s.Equal(pricing.StatusActive, res.Items[1].Status)

	_, err = s.svc.List(s.ctx, pricing.ListFilter{Page: domain.Page{OrderBy: "secret"}})
	s.True(apperror.IsValidation(err))

	_, err = s.svc.List(s.ctx, pricing.ListFilter{From: types.MustDate("2024-02-01"), To: types.MustDate("2024-01-01")})
	s.True(apperror.IsValidation(err))
}

func (s *ServiceSuite) TestBulkCreate_ReportsPerRow() {
	report := s.svc.BulkCreate(s.ctx, []pricing.CreateInput{
		{ItemID: "SKU-1", EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("10")},
		{ItemID: "SKU-1", EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("11")},
		{ItemID: "", EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("11")},
		{ItemID: "SKU-2", EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("12")},
	})

	s.Equal(2, report.Created)
	s.Equal(2, report.Failed)
	s.Require().Len(report.Rows, 4)
	s.NotEmpty(report.Rows[0].ID)
	s.True(apperror.IsConflict(report.Rows[1].Error))
	s.True(apperror.IsValidation(report.Rows[2].Error))
	s.Equal(4, report.Rows[3].Row)
}

func (s *ServiceSuite) TestHooks_BeforeCreateCanVeto() {
	veto := errors.New("frozen item")
	s.svc.Hooks().OnBeforeCreate(func(ctx context.Context, ps *pricing.PriceSchedule) error {
		if ps.ItemID == "FROZEN" {
			return veto
		}
		return nil
	})

	_, err := s.svc.Create(s.ctx, pricing.CreateInput{
		ItemID: "FROZEN", EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("1"),
	})
	s.ErrorIs(err, veto)
}

func (s *ServiceSuite) TestHistory_RecordsEachMutation() {
	history := memory.NewHistoryStore()
	svc := pricing.NewService(pricing.ServiceConfig{
		Repo:    s.store,
		History: history,
		Clock:   func() time.Time { return s.now },
		Logger:  logger.Nop(),
	})
	ctx := appctx.WithUser(s.ctx, &appctx.UserContext{UserID: "bob"})

	ps, err := svc.Create(ctx, pricing.CreateInput{
		ItemID: "SKU-1", EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("10"),
	})
	s.Require().NoError(err)
	_, err = svc.Update(ctx, ps.ID, pricing.Patch{BasePrice: types.MoneyPtr("12")})
	s.Require().NoError(err)
	_, err = svc.Cancel(ctx, ps.ID, ptr("typo"))
	s.Require().NoError(err)

	entries, err := svc.History(s.ctx, ps.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)

	s.Equal(pricing.EventCancelled, entries[0].Action)
	s.Equal(pricing.FieldChange{Old: "PENDING", New: "CANCELLED"}, entries[0].Changes["status"])
	s.Equal(pricing.FieldChange{New: "typo"}, entries[0].Changes["cancelReason"])

	s.Equal(pricing.EventUpdated, entries[1].Action)
	s.Equal(pricing.FieldChange{Old: "10", New: "12"}, entries[1].Changes["basePrice"])
	s.NotContains(entries[1].Changes, "version")

	s.Equal(pricing.EventCreated, entries[2].Action)
	s.Equal("bob", entries[2].UserID)
	s.Equal(ps.ID, entries[2].ScheduleID)

	limited, err := svc.History(s.ctx, ps.ID, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *ServiceSuite) TestHistory_SurvivesDeleteAndNeedsStore() {
	history := memory.NewHistoryStore()
	svc := pricing.NewService(pricing.ServiceConfig{Repo: s.store, History: history, Clock: func() time.Time { return s.now }})

	ps, err := svc.Create(s.ctx, pricing.CreateInput{
		ItemID: "SKU-1", EffectiveDate: types.MustDate("2024-07-01"), BasePrice: types.MustMoney("10"),
	})
	s.Require().NoError(err)
	s.Require().NoError(svc.Delete(s.ctx, ps.ID))

	entries, err := svc.History(s.ctx, ps.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(pricing.EventDeleted, entries[0].Action)
	s.Equal(pricing.FieldChange{Old: "SKU-1"}, entries[0].Changes["itemId"])

	_, err = s.svc.History(s.ctx, ps.ID, 10)
	s.True(apperror.IsInvalidState(err))
}
