package manager

import (
	"fmt"
	"strings"
)

// NotFoundError reports that an id-or-name pattern matched no record.
type NotFoundError struct {
	Pattern string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no process matches %q", e.Pattern)
}

// AmbiguousMatchError reports that a name pattern matched more than one
// record. The caller must disambiguate; the manager never silently
// picks one.
type AmbiguousMatchError struct {
	Pattern string
	IDs     []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("pattern %q matches %d processes (%s); use an exact id",
		e.Pattern, len(e.IDs), strings.Join(e.IDs, ", "))
}
