package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		page Page
		want []int
	}{
		{name: "first page", page: Page{Limit: 2}, want: []int{1, 2}},
		{name: "middle", page: Page{Limit: 2, Offset: 2}, want: []int{3, 4}},
		{name: "tail shorter than limit", page: Page{Limit: 2, Offset: 4}, want: []int{5}},
		{name: "past the end", page: Page{Limit: 2, Offset: 9}, want: []int{}},
		{name: "no limit", page: Page{Offset: 1}, want: []int{2, 3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Paginate(all, tt.page)
			assert.Equal(t, tt.want, res.Items)
			assert.Equal(t, int64(5), res.TotalCount)
		})
	}
}

func TestPage_Normalize(t *testing.T) {
	p := Page{Limit: 10_000, Offset: -3}.Normalize(50)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.Equal(t, 0, p.Offset)

	assert.Equal(t, 50, Page{}.Normalize(50).Limit)
}

func TestHookRegistry_StopsAtFirstError(t *testing.T) {
	reg := NewHookRegistry[*[]string]()
	boom := errors.New("boom")

	reg.OnBeforeCreate(func(ctx context.Context, log *[]string) error {
		*log = append(*log, "first")
		return nil
	})
	reg.OnBeforeCreate(func(ctx context.Context, log *[]string) error {
		return boom
	})
	reg.OnBeforeCreate(func(ctx context.Context, log *[]string) error {
		*log = append(*log, "never")
		return nil
	})

	var log []string
	err := reg.Run(context.Background(), BeforeCreate, &log)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first"}, log)
	assert.NoError(t, reg.Run(context.Background(), AfterDelete, &log))
}
