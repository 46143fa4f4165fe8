package storage

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema/postgres.sql
var postgresSchema string

//go:embed schema/sqlite.sql
var sqliteSchema string

// dialect holds the few places where PostgreSQL and SQLite disagree.
// Queries are written with '?' placeholders and rebound per dialect.
type dialect struct {
	name       string
	driverName string
	schema     string
	// dateText and timeText render a DATE/TIME column as text for scanning.
	dateText func(col string) string
	timeText func(col string) string
	numbered bool
}

var (
	postgresDialect = dialect{
		name:       "postgres",
		driverName: "postgres",
		schema:     postgresSchema,
		dateText:   func(col string) string { return "to_char(" + col + ", 'YYYY-MM-DD')" },
		timeText:   func(col string) string { return col + "::text" },
		numbered:   true,
	}
	sqliteDialect = dialect{
		name:       "sqlite",
		driverName: "sqlite",
		schema:     sqliteSchema,
		dateText:   func(col string) string { return col },
		timeText:   func(col string) string { return col },
	}
)

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect, nil
	case "sqlite":
		return sqliteDialect, nil
	}
	return dialect{}, fmt.Errorf("storage: unsupported driver %q", driver)
}

// rebind rewrites '?' placeholders to $1, $2, ... for PostgreSQL.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
