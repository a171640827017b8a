package entity

import (
	"context"
	"time"

	"pricebook/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

///////////////////
// Base Entity   //
///////////////////

// BaseEntity contains the identity and optimistic-lock version shared by persisted records.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// Touch increments version (for optimistic locking).
func (b *BaseEntity) Touch() {
	b.Version++
}

// SetVersion updates the version number (used by repository after sync).
func (b *BaseEntity) SetVersion(v int) {
	b.Version = v
}

/////////////
// Records //
/////////////

// BaseRecord extends BaseEntity with audit fields.
type BaseRecord struct {
	BaseEntity

	// Audit fields
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseRecord creates a new BaseRecord with generated ID and timestamps taken from now.
func NewBaseRecord(now time.Time) BaseRecord {
	now = now.UTC()
	return BaseRecord{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetCreatedBy implements the audit enrichment contract.
func (b *BaseRecord) SetCreatedBy(user string) { b.CreatedBy = user }

// SetUpdatedBy implements the audit enrichment contract.
func (b *BaseRecord) SetUpdatedBy(user string) { b.UpdatedBy = user }
