// Package migrations embebe los .sql de goose para Postgres.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Dir es el directorio dentro de FS que se le pasa a goose.
const Dir = "."
