package models

import (
	"errors"
	"strings"

	sqlitelib "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/graft-pt/graft/internal/graft"
)

// isUniqueConstraintError reports whether err is a SQLite UNIQUE or PRIMARY
// KEY constraint violation, following the teacher's sqlite-only half of its
// dual pgx/sqlite classification helper (Graft has no Postgres backend).
func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlitelib.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	// modernc.org/sqlite sometimes surfaces constraint failures as plain
	// errors from the driver layer rather than *sqlitelib.Error; fall back
	// to matching the message the way the teacher's helper does.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapIndexIO classifies a raw database error into the taxonomy's IndexIO
// kind, the Index Store's catch-all per the error handling design.
func wrapIndexIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return graft.New(graft.KindIndexIO, op, err)
}
