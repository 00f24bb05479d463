// Package reorder moves one element of an ordered list.
package reorder

// Up and Down are the offsets accepted by the editor.
const (
	Up   = -1
	Down = 1
)

// Move returns a copy of list with the element at index spliced out and
// reinserted at index+offset. Other elements keep their relative order. An
// index or target outside the list leaves the copy unchanged.
func Move[T any](list []T, index, offset int) []T {
	out := make([]T, len(list))
	copy(out, list)

	target := index + offset
	if index < 0 || index >= len(out) || target < 0 || target >= len(out) || offset == 0 {
		return out
	}

	moved := out[index]
	if target < index {
		copy(out[target+1:index+1], out[target:index])
	} else {
		copy(out[index:target], out[index+1:target+1])
	}
	out[target] = moved
	return out
}

// ValidOffset reports whether offset is a single step up or down.
func ValidOffset(offset int) bool {
	return offset == Up || offset == Down
}
