package id

import (
	"github.com/oklog/ulid/v2"
)

// GetULID returns a lexically sortable, monotonic-within-a-millisecond id.
// Used as the Matrix transaction id.
func GetULID() string {
	return ulid.Make().String()
}
