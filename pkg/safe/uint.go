// Package safe narrows integer widths with explicit range checks, so wire
// values never truncate silently.
package safe

import (
	"fmt"
	"math"
)

// integer covers the widths that appear on the wire.
type integer interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// Uint32 converts any supported integer to uint32, rejecting negatives and
// values above the uint32 range.
func Uint32[T integer](v T) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("value %d out of uint32 range", v)
	}
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("value %d out of uint32 range", v)
	}
	return uint32(v), nil
}
