package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "2024-01-15", want: "2024-01-15"},
		{name: "leap day", in: "2024-02-29", want: "2024-02-29"},
		{name: "impossible day", in: "2023-02-30", wantErr: true},
		{name: "garbage", in: "15/01/2024", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDateOf_DropsTimeOfDay(t *testing.T) {
	ts := time.Date(2024, 3, 1, 23, 59, 59, 0, time.FixedZone("X", 7*3600))
	assert.True(t, DateOf(ts).Equal(NewDate(2024, 3, 1)))
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		D Date `json:"d"`
	}

	out, err := json.Marshal(wrapper{D: MustDate("2024-06-01")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-06-01"}`, string(out))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &w))
	assert.True(t, w.D.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"d":"2024-13-01"}`), &w))
}

func TestDate_ScanValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-06", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), v)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))
}

func TestRoundMoney_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, "0.13", RoundMoney(MustMoney("0.125")).StringFixed(2))
	assert.Equal(t, "-0.13", RoundMoney(MustMoney("-0.125")).StringFixed(2))
	assert.Equal(t, "0.12", RoundMoney(MustMoney("0.1249")).StringFixed(2))
}
