// Package migrations embeds and applies the schema migrations for the
// PostgreSQL reinforcement memory and the ClickHouse evaluation log.
package migrations

import "embed"

// PostgresFS holds the embedded PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the embedded ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
