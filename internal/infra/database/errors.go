package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrCoachNotFound   = fmt.Errorf("coach not found")
	ErrSchoolNotFound  = fmt.Errorf("school not found")
	ErrTeacherNotFound = fmt.Errorf("teacher not found")
	ErrImageNotFound   = fmt.Errorf("image not found")
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrDuplicateCoach  = fmt.Errorf("coach with this username already exists")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}
