// Package migrations contains dialect-aware Go database migrations that
// cannot be expressed as a single cross-database SQL statement.
package migrations

// dialect is set by the parent db package before migrations are applied.
var dialect string

// SetDialect configures the SQL dialect for Go migrations.
// Must be called before goose.Up. Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}

// serialPK returns the autoincrementing integer primary key column DDL
// for the active dialect.
func serialPK() string {
	switch dialect {
	case "postgres":
		return "BIGSERIAL PRIMARY KEY"
	case "mysql":
		return "BIGINT AUTO_INCREMENT PRIMARY KEY"
	default: // sqlite3
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// datetime returns the timestamp column type for the active dialect.
func datetime() string {
	switch dialect {
	case "postgres":
		return "TIMESTAMPTZ"
	case "mysql":
		return "DATETIME(6)"
	default: // sqlite3
		return "DATETIME"
	}
}
