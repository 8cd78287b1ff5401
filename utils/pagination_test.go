package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name         string
		page         string
		pageSize     string
		wantPage     int
		wantPageSize int
	}{
		{"defaults", "", "", 1, DefaultPageSize},
		{"explicit", "3", "10", 3, 10},
		{"garbage", "abc", "-2", 1, DefaultPageSize},
		{"zero page", "0", "5", 1, 5},
		{"capped page size", "1", "5000", 1, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPageSize, p.PageSize)
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, PageSize: 5}.Offset())
	assert.Equal(t, 10, Pagination{Page: 3, PageSize: 5}.Offset())
}

func TestEnvelope(t *testing.T) {
	p := Pagination{Page: 2, PageSize: 5}
	resp := p.Envelope([]string{"a", "b"}, 12)

	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 12, resp.TotalItems)
	assert.Equal(t, 3, resp.TotalPages)
	require.NotNil(t, resp.Next)
	assert.Equal(t, 3, *resp.Next)
	require.NotNil(t, resp.Previous)
	assert.Equal(t, 1, *resp.Previous)

	first := Pagination{Page: 1, PageSize: 5}.Envelope(nil, 3)
	assert.Equal(t, 1, first.TotalPages)
	assert.Nil(t, first.Next)
	assert.Nil(t, first.Previous)
}
