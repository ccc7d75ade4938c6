package repository

import (
	"strconv"
	"strings"
)

// Dialect adapts the `?` placeholders used by the queries in this package.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "pgx"
)

// DialectFor maps a db driver name to its dialect. Unknown drivers fall back to SQLite.
func DialectFor(driver string) Dialect {
	if driver == string(Postgres) {
		return Postgres
	}
	return SQLite
}

// Rebind rewrites `?` into `$1, $2, ...` for Postgres.
func (d Dialect) Rebind(q string) string {
	if d != Postgres || !strings.Contains(q, "?") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}
