// Package migrations embeds the SQL schema applied at startup when Postgres is configured.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
