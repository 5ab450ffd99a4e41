package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
