// Package id mints the identifiers that key positions, trades, and
// journal rows.
package id

import "github.com/oklog/ulid/v2"

// New returns a fresh ULID. Lexicographic order follows creation time,
// so journal primary keys stay append-ordered without a sequence column.
// ulid.Make is safe for concurrent use and monotonic within a
// millisecond.
func New() string {
	return ulid.Make().String()
}
