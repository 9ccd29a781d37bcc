package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"saccolink/internal/pkg/pagination"
)

func TestGetMeta(t *testing.T) {
	params := &pagination.Params{Page: 2, Limit: 20, Offset: 20}
	meta := pagination.GetMeta(params, 45)

	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, int64(45), meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestGetMetaExactPages(t *testing.T) {
	params := &pagination.Params{Page: 2, Limit: 20, Offset: 20}
	meta := pagination.GetMeta(params, 40)

	assert.Equal(t, 2, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}

func TestGetMetaEmpty(t *testing.T) {
	params := &pagination.Params{Page: 1, Limit: 20}
	meta := pagination.GetMeta(params, 0)

	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}

func TestNewResponse(t *testing.T) {
	params := &pagination.Params{Page: 1, Limit: 10}
	resp := pagination.NewResponse([]string{"a", "b"}, params, 2)

	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, int64(2), resp.Meta.Total)
	assert.Equal(t, 1, resp.Meta.TotalPages)
}
