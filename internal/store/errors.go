package store

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrEmptyUpdate is returned by sparse updates called with no fields set.
var ErrEmptyUpdate = errors.New("update contains no fields")

// DuplicateUserError reports a Create against an identifier that already
// has a row.
type DuplicateUserError struct {
	UID string
}

func (e *DuplicateUserError) Error() string {
	return fmt.Sprintf("user %s already exists", e.UID)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}
