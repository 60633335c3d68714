package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{
			name: "valid page untouched",
			in:   Pagination{Page: 3, PageSize: 25},
			want: Pagination{Page: 3, PageSize: 25},
		},
		{
			name: "zero page clamps to first",
			in:   Pagination{Page: 0, PageSize: 25},
			want: Pagination{Page: 1, PageSize: 25},
		},
		{
			name: "negative page clamps to first",
			in:   Pagination{Page: -4, PageSize: 25},
			want: Pagination{Page: 1, PageSize: 25},
		},
		{
			name: "zero size gets the default",
			in:   Pagination{Page: 2},
			want: Pagination{Page: 2, PageSize: 50},
		},
		{
			name: "oversized page size is capped",
			in:   Pagination{Page: 1, PageSize: 5000},
			want: Pagination{Page: 1, PageSize: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Offset(), 0)
		})
	}
}
