package repositories

import (
	"context"
	"errors"
	"fmt"

	"pharmatrack/internal/scope"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the slice of pgx used by the repositories. *pgxpool.Pool,
// pgx.Tx and pgxmock pools all satisfy it, so repositories run unchanged
// inside a transaction or under a mock.
type Database interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// slugAttempts bounds the retries after a slug unique-violation. The suffix
// space is large enough that more than one retry is already exceptional.
const slugAttempts = 3

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// scopeClause renders the row-visibility filter for a scoped query. Every
// list/get/update/delete against an owned table starts from this clause, so
// a row outside the caller's organization (or, for staff, not assigned to
// the caller) can never be returned or touched.
func scopeClause(sc scope.Scope) (string, []interface{}) {
	return scopeClauseAt(sc, 1)
}

// scopeClauseAt is scopeClause with placeholder numbering starting at start,
// for statements that bind other arguments first.
func scopeClauseAt(sc scope.Scope, start int) (string, []interface{}) {
	if sc.StaffID != nil {
		return fmt.Sprintf("organization_id = $%d AND assigned_staff_id = $%d", start, start+1),
			[]interface{}{sc.OrganizationID, *sc.StaffID}
	}
	return fmt.Sprintf("organization_id = $%d", start), []interface{}{sc.OrganizationID}
}

// searchClause appends an ILIKE filter over fields for a sanitized search
// term, continuing the placeholder numbering after args.
func searchClause(fields []string, next int) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", f, next)
	}
	clause := parts[0]
	for _, p := range parts[1:] {
		clause += " OR " + p
	}
	return "(" + clause + ")"
}
