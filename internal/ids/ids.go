package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable identifier for accounts, audit
// entries and request correlation.
func New() string {
	return ulid.Make().String()
}
