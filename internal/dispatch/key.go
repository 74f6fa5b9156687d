package dispatch

import (
	"slices"
	"strconv"
	"strings"

	"tensorc/internal/typereg"
)

// Key is one tag per dispatch position.
type Key []typereg.Tag

func (k Key) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, t := range k {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatUint(uint64(t), 10))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Compare orders keys lexicographically.
func (k Key) Compare(other Key) int {
	return slices.Compare(k, other)
}

// covers reports whether every tag of k lies inside shape.
func covers(shape []int, k Key) bool {
	if len(k) != len(shape) {
		return false
	}
	for i, t := range k {
		if int(t) >= shape[i] {
			return false
		}
	}
	return true
}
