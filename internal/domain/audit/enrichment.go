// Package audit provides utilities for audit field enrichment in domain entities.
package audit

import (
	"context"

	appctx "pricebook/internal/core/context"
)

// Auditable is implemented by records carrying createdBy/updatedBy fields.
type Auditable interface {
	SetCreatedBy(string)
	SetUpdatedBy(string)
}

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the context user.
// Use in BeforeCreate hooks. If no user is in context, this is a no-op.
func EnrichCreatedBy(ctx context.Context, entity Auditable) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	entity.SetCreatedBy(userID)
	entity.SetUpdatedBy(userID)
	return nil
}

// EnrichUpdatedBy sets only UpdatedBy from the context user.
// Use in BeforeUpdate hooks. If no user is in context, this is a no-op.
func EnrichUpdatedBy(ctx context.Context, entity Auditable) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	entity.SetUpdatedBy(userID)
	return nil
}
