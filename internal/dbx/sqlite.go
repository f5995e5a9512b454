package dbx

import (
	"strings"
	"time"
)

// Timestamps are stored as integer Unix milliseconds in UTC so that range
// comparisons can happen inside SQL without string-format pitfalls.

// Millis converts t to the stored representation.
func Millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// FromMillis converts a stored timestamp back to a UTC time.Time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// NullMillis converts an optional time to a nullable column value.
func NullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return Millis(*t)
}

// FromNullMillis converts a nullable column value back to an optional time.
func FromNullMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := FromMillis(*ms)
	return &t
}

// IsUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The modernc driver surfaces constraint errors with this message
// text; there is no portable error code through database/sql.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsBusy reports whether err is a SQLite busy or locked failure, raised when
// a write cannot take the database lock within the busy timeout. Like
// IsUniqueViolation this matches the modernc driver's message text.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED") ||
		strings.Contains(msg, "database is locked")
}
