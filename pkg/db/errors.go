package db

import "strings"

// IsUniqueViolation reports whether err is a unique constraint violation.
// It matches both the Postgres and the sqlite error text so services behave
// the same under the sqlite-backed tests.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
