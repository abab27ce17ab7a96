package repository

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type scanner interface {
	Scan(dest ...any) error
}

func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
