package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"pricebook/internal/core/id"
)

// CompressionAlgo names how audit changes are stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultAuditCompressThreshold is the size above which changes are stored compressed.
const DefaultAuditCompressThreshold = 10 * 1024

// AuditEntry is one row of sys_audit. Changes is always plain JSON once read back.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            string          `db:"action"`
	UserID            string          `db:"user_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditLog writes change records in the caller's transaction.
type AuditLog struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditLog creates an audit log. A non-positive threshold uses DefaultAuditCompressThreshold.
func NewAuditLog(txManager *TxManager, compressThreshold int) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if compressThreshold <= 0 {
		compressThreshold = DefaultAuditCompressThreshold
	}
	return &AuditLog{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: compressThreshold,
	}, nil
}

const insertAuditSQL = `
	INSERT INTO sys_audit (
		id, entity_type, entity_id, action, user_id,
		changes, changes_compressed, compression_algo, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Log inserts entry, compressing changes above the threshold.
func (a *AuditLog) Log(ctx context.Context, entry AuditEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	a.pack(&entry)

	_, err := a.txManager.GetQuerier(ctx).Exec(ctx, insertAuditSQL,
		entry.ID, entry.EntityType, entry.EntityID, entry.Action, entry.UserID,
		entry.Changes, entry.ChangesCompressed, entry.CompressionAlgo, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

const selectAuditSQL = `
	SELECT id, entity_type, entity_id, action, user_id,
		changes, changes_compressed, compression_algo, created_at
	FROM sys_audit
	WHERE entity_type = $1 AND entity_id = $2
	ORDER BY created_at DESC, id DESC
	LIMIT $3`

// History returns up to limit entries of one entity, newest first.
func (a *AuditLog) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]AuditEntry, error) {
	var entries []AuditEntry
	if err := pgxscan.Select(ctx, a.txManager.GetQuerier(ctx), &entries, selectAuditSQL, entityType, entityID, limit); err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	for i := range entries {
		if err := a.unpack(&entries[i]); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (a *AuditLog) pack(e *AuditEntry) {
	e.CompressionAlgo = CompressionNone
	if len(e.Changes) > a.compressThreshold {
		e.ChangesCompressed = a.encoder.EncodeAll(e.Changes, nil)
		e.Changes = nil
		e.CompressionAlgo = CompressionZstd
	}
}

func (a *AuditLog) unpack(e *AuditEntry) error {
	if e.CompressionAlgo != CompressionZstd || len(e.ChangesCompressed) == 0 {
		return nil
	}
	raw, err := a.decoder.DecodeAll(e.ChangesCompressed, nil)
	if err != nil {
		return fmt.Errorf("decompress audit changes of %s: %w", e.ID, err)
	}
	e.Changes = raw
	e.ChangesCompressed = nil
	return nil
}
