package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "local ticker gets suffix",
			raw:  "PETR4",
			want: "PETR4.SA",
		},
		{
			name: "lowercase is uppercased",
			raw:  "vale3",
			want: "VALE3.SA",
		},
		{
			name: "whitespace is trimmed",
			raw:  " itub4 ",
			want: "ITUB4.SA",
		},
		{
			name: "already suffixed is unchanged",
			raw:  "PETR4.SA",
			want: "PETR4.SA",
		},
		{
			name: "suffix appended exactly once",
			raw:  "petr4.sa",
			want: "PETR4.SA",
		},
		{
			name: "six character ticker gets suffix",
			raw:  "SANB11",
			want: "SANB11.SA",
		},
		{
			name: "long symbol is unchanged",
			raw:  "BRKB34X",
			want: "BRKB34X",
		},
		{
			name: "foreign qualified symbol is unchanged",
			raw:  "AAPL.US",
			want: "AAPL.US",
		},
		{
			name: "empty stays empty",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTicker(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}
