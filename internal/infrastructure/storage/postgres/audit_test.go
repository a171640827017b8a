package postgres

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_PackSmallChangesStayPlain(t *testing.T) {
	a, err := NewAuditLog(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultAuditCompressThreshold, a.compressThreshold)

	e := AuditEntry{Changes: json.RawMessage(`{"notes":{"old":null,"new":"x"}}`)}
	a.pack(&e)

	assert.Equal(t, CompressionNone, e.CompressionAlgo)
	assert.Nil(t, e.ChangesCompressed)
	assert.JSONEq(t, `{"notes":{"old":null,"new":"x"}}`, string(e.Changes))
}

func TestAuditLog_PackUnpackLargeChanges(t *testing.T) {
	a, err := NewAuditLog(nil, 64)
	require.NoError(t, err)

	notes := string(bytes.Repeat([]byte("spring promo "), 40))
	raw, err := json.Marshal(map[string]any{"notes": map[string]any{"old": nil, "new": notes}})
	require.NoError(t, err)

	e := AuditEntry{Changes: raw}
	a.pack(&e)
	require.Equal(t, CompressionZstd, e.CompressionAlgo)
	assert.Nil(t, e.Changes)
	assert.Less(t, len(e.ChangesCompressed), len(raw))

	require.NoError(t, a.unpack(&e))
	assert.Nil(t, e.ChangesCompressed)
	assert.JSONEq(t, string(raw), string(e.Changes))
}

func TestAuditLog_UnpackCorrupt(t *testing.T) {
	a, err := NewAuditLog(nil, 0)
	require.NoError(t, err)

	e := AuditEntry{CompressionAlgo: CompressionZstd, ChangesCompressed: []byte("not zstd")}
	assert.Error(t, a.unpack(&e))
}
