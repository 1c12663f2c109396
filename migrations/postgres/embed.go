// Package migrations embebe las migraciones del esquema PostgreSQL.
package migrations

import "embed"

// FS contiene las migraciones de postgres.
//
//go:embed *.sql
var FS embed.FS

// Dir es el directorio dentro de FS donde viven las migraciones.
const Dir = "."
