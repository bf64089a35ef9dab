package storage

import _ "embed"

// Schema is the DDL for every table the store uses. Statements are
// idempotent (CREATE ... IF NOT EXISTS) so applying it to an existing
// database is safe.
//
//go:embed schema.sql
var Schema string
