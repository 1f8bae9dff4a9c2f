package ids

import "github.com/segmentio/ksuid"

// New returns a new sortable unique id for database rows.
func New() string {
	return ksuid.New().String()
}
