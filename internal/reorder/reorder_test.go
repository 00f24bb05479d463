package reorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMove(t *testing.T) {
	tests := []struct {
		name   string
		list   []string
		index  int
		offset int
		want   []string
	}{
		{"first up is a no-op", []string{"a", "b", "c"}, 0, Up, []string{"a", "b", "c"}},
		{"last down is a no-op", []string{"a", "b", "c"}, 2, Down, []string{"a", "b", "c"}},
		{"middle up", []string{"a", "b", "c"}, 1, Up, []string{"b", "a", "c"}},
		{"middle down", []string{"a", "b", "c"}, 1, Down, []string{"a", "c", "b"}},
		{"index out of range", []string{"a", "b"}, 5, Up, []string{"a", "b"}},
		{"negative index", []string{"a", "b"}, -1, Down, []string{"a", "b"}},
		{"long jump keeps others in order", []string{"a", "b", "c", "d", "e"}, 0, 3, []string{"b", "c", "d", "a", "e"}},
		{"long jump back", []string{"a", "b", "c", "d", "e"}, 4, -3, []string{"a", "e", "b", "c", "d"}},
		{"empty list", []string{}, 0, Down, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Move(tt.list, tt.index, tt.offset))
		})
	}
}

func TestMove_DoesNotMutateInput(t *testing.T) {
	in := []int{1, 2, 3}
	out := Move(in, 2, Up)
	assert.Equal(t, []int{1, 2, 3}, in)
	assert.Equal(t, []int{1, 3, 2}, out)
}

func TestValidOffset(t *testing.T) {
	assert.True(t, ValidOffset(Up))
	assert.True(t, ValidOffset(Down))
	assert.False(t, ValidOffset(0))
	assert.False(t, ValidOffset(2))
}
