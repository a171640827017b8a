// Package schedule_repo stores price schedules in PostgreSQL.
package schedule_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pricebook/internal/core/apperror"
	"pricebook/internal/core/id"
	"pricebook/internal/domain"
	"pricebook/internal/domain/pricing"
	"pricebook/internal/infrastructure/storage/postgres"
)

const tableName = "price_schedules"

var (
	selectCols = postgres.ExtractDBColumns[pricing.PriceSchedule]()

	// Columns never rewritten by Update.
	immutableCols = map[string]bool{"id": true, "version": true, "created_at": true, "created_by": true}

	sortColumns = map[string]string{
		pricing.SortEffectiveDate: "effective_date",
		pricing.SortItemID:        "item_id",
		pricing.SortCustomerID:    "customer_id",
		pricing.SortBasePrice:     "base_price",
		pricing.SortCreatedAt:     "created_at",
		pricing.SortUpdatedAt:     "updated_at",
	}
)

var (
	_ pricing.Repository       = (*Repo)(nil)
	_ pricing.GenerationSource = (*Repo)(nil)
)

// Repo implements pricing.Repository. Queries join the transaction carried in ctx, if any.
type Repo struct {
	txm *postgres.TxManager
}

// New creates a schedule repository.
func New(txm *postgres.TxManager) *Repo {
	return &Repo{txm: txm}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// rowValues maps s onto table columns. Computed statuses are never stored.
func rowValues(s *pricing.PriceSchedule) map[string]any {
	data := postgres.StructToMap(s)
	out := make(map[string]any, len(selectCols))
	for _, col := range selectCols {
		if v, ok := data[col]; ok {
			out[col] = v
		}
	}
	out["status"] = string(persistedStatus(s.Status))
	return out
}

func persistedStatus(st pricing.Status) pricing.Status {
	if st == pricing.StatusCancelled {
		return pricing.StatusCancelled
	}
	return pricing.StatusPending
}

// Create inserts s.
func (r *Repo) Create(ctx context.Context, s *pricing.PriceSchedule) error {
	sql, args, err := builder().Insert(tableName).SetMap(rowValues(s)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", tableName, err), tableName)
	}
	return nil
}

// GetByID loads one schedule.
func (r *Repo) GetByID(ctx context.Context, scheduleID id.ID) (*pricing.PriceSchedule, error) {
	sql, args, err := builder().Select(selectCols...).From(tableName).
		Where(squirrel.Eq{"id": scheduleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s pricing.PriceSchedule
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(tableName, scheduleID.String())
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return &s, nil
}

// ListByItem loads every schedule of the item in any status.
func (r *Repo) ListByItem(ctx context.Context, itemID string) ([]*pricing.PriceSchedule, error) {
	sql, args, err := builder().Select(selectCols...).From(tableName).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("effective_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	list := make([]*pricing.PriceSchedule, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("list by item: %w", err)
	}
	return list, nil
}

// ItemGeneration implements pricing.GenerationSource. The counter is maintained by a
// trigger on price_schedules; an item never written reads as 0.
func (r *Repo) ItemGeneration(ctx context.Context, itemID string) (int64, error) {
	sql, args, err := generationQuery(itemID).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var gen int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&gen); err != nil {
		return 0, fmt.Errorf("item generation: %w", err)
	}
	return gen, nil
}

func generationQuery(itemID string) squirrel.SelectBuilder {
	return builder().
		Select("COALESCE(MAX(generation), 0)").
		From("price_item_generations").
		Where(squirrel.Eq{"item_id": itemID})
}

// Update rewrites s if the stored version equals s.Version, then bumps s.Version.
func (r *Repo) Update(ctx context.Context, s *pricing.PriceSchedule) error {
	sql, args, err := updateQuery(s).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", tableName, err), tableName)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(tableName, s.ID.String())
	}
	s.Touch()
	return nil
}

func updateQuery(s *pricing.PriceSchedule) squirrel.UpdateBuilder {
	data := rowValues(s)
	for col := range immutableCols {
		delete(data, col)
	}
	return builder().Update(tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"version": s.Version})
}

// Delete removes the schedule physically.
func (r *Repo) Delete(ctx context.Context, scheduleID id.ID) error {
	sql, args, err := builder().Delete(tableName).Where(squirrel.Eq{"id": scheduleID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("delete %s: %w", tableName, err), tableName)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(tableName, scheduleID.String())
	}
	return nil
}

// List returns a filtered, ordered page together with the total match count.
func (r *Repo) List(ctx context.Context, filter pricing.ListFilter) (domain.ListResult[*pricing.PriceSchedule], error) {
	result := domain.ListResult[*pricing.PriceSchedule]{
		Items:  make([]*pricing.PriceSchedule, 0),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	ob, err := pricing.ParseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q := filtered(builder().Select(selectCols...).From(tableName), filter)
	querier := r.txm.GetQuerier(ctx)

	countSQL, countArgs, err := builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy(orderClause(ob)...)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}

// filtered applies the non-paging parts of f to q.
func filtered(q squirrel.SelectBuilder, f pricing.ListFilter) squirrel.SelectBuilder {
	if f.ItemID != "" {
		q = q.Where(squirrel.Eq{"item_id": f.ItemID})
	}
	if f.CustomerID != nil {
		if *f.CustomerID == "" {
			q = q.Where(squirrel.Eq{"customer_id": nil})
		} else {
			q = q.Where(squirrel.Eq{"customer_id": *f.CustomerID})
		}
	}
	switch f.Scope {
	case pricing.ScopeGlobal:
		q = q.Where(squirrel.Eq{"customer_id": nil})
	case pricing.ScopeCustomer:
		q = q.Where(squirrel.NotEq{"customer_id": nil})
	}
	if f.Cancelled != nil {
		if *f.Cancelled {
			q = q.Where(squirrel.Eq{"status": string(pricing.StatusCancelled)})
		} else {
			q = q.Where(squirrel.NotEq{"status": string(pricing.StatusCancelled)})
		}
	}
	if !f.From.IsZero() {
		q = q.Where(squirrel.GtOrEq{"effective_date": f.From})
	}
	if !f.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{"effective_date": f.To})
	}
	return q
}

// orderClause sorts by the requested column with id as the tie-breaker.
func orderClause(ob pricing.OrderBy) []string {
	dir := "ASC"
	if ob.Desc {
		dir = "DESC"
	}
	return []string{sortColumns[ob.Field] + " " + dir, "id " + dir}
}
