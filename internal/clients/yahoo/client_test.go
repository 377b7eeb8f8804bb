package yahoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsFloat(t *testing.T) {
	tests := []struct {
		name string
		info map[string]interface{}
		key  string
		want float64
	}{
		{
			name: "plain scalar",
			info: map[string]interface{}{"trailingPE": 9.2},
			key:  "trailingPE",
			want: 9.2,
		},
		{
			name: "one-element series",
			info: map[string]interface{}{"trailingPE": []interface{}{9.2}},
			key:  "trailingPE",
			want: 9.2,
		},
		{
			name: "raw/fmt wrapper",
			info: map[string]interface{}{"dividendYield": map[string]interface{}{"raw": 5.43, "fmt": "5.43%"}},
			key:  "dividendYield",
			want: 5.43,
		},
		{
			name: "missing key",
			info: map[string]interface{}{},
			key:  "trailingPE",
			want: 0,
		},
		{
			name: "nil value",
			info: map[string]interface{}{"trailingPE": nil},
			key:  "trailingPE",
			want: 0,
		},
		{
			name: "empty series",
			info: map[string]interface{}{"trailingPE": []interface{}{}},
			key:  "trailingPE",
			want: 0,
		},
		{
			name: "non-numeric value",
			info: map[string]interface{}{"trailingPE": "n/a"},
			key:  "trailingPE",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := asFloat(tt.info, tt.key)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotHasPrice(t *testing.T) {
	snap := scanSnapshot(map[string]interface{}{
		"currentPrice": 38.50,
		"trailingPE":   []interface{}{9.2},
	})
	assert.True(t, snap.HasPrice())
	assert.Equal(t, 38.50, snap.Price)
	assert.Equal(t, 9.2, snap.TrailingPE)

	empty := scanSnapshot(map[string]interface{}{})
	assert.False(t, empty.HasPrice())
}
