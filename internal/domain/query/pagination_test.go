package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationClamps(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize},
		{"page zero raised", 0, 10, 1, 10},
		{"negative page", -3, 10, 1, 10},
		{"page size capped", 1, 500, 1, MaxPageSize},
		{"negative page size", 1, -1, 1, 1},
		{"in range untouched", 3, 25, 3, 25},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.pageSize)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantPageSize, p.PageSize)
		})
	}
}

func TestPaginationOffsetAndLimit(t *testing.T) {
	p := NewPagination(3, 25)
	assert.Equal(t, 50, p.Offset())
	assert.Equal(t, 25, p.Limit())
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 500, ClampLimit(1000, 500))
	assert.Equal(t, 500, ClampLimit(0, 500))
	assert.Equal(t, 500, ClampLimit(-1, 500))
	assert.Equal(t, 42, ClampLimit(42, 500))
	assert.Equal(t, 1, ClampLimit(10, 0))
}
