// Package sqlxrepos implements the domain repositories on PostgreSQL.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core"
)

// pq error codes
const (
	pqFKViolation        = "23503"
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

// getExec resolves the executor for a repository call: the caller's
// transaction when one was passed down, the repository's own DB otherwise.
func getExec(db core.DBExecutor, exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 && exec[0] != nil {
		return exec[0]
	}
	return db
}

// trapNoRowsErr maps sql.ErrNoRows to the domain's not-found error.
func trapNoRowsErr(err, notFound error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return err
}

func isPqErr(err error, code string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && string(pqErr.Code) == code
}

// orderClause renders an ORDER BY from the requested ordering, falling back
// to def when none was requested.
func orderClause(ordering []core.DBOrdering, def string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + def
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		parts = append(parts, ord.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
