// Package store embeds the admission schema so integration harnesses can
// bootstrap a database without shipping migration files separately.
package store

import _ "embed"

// Schema is the full admission DDL, idempotent via IF NOT EXISTS.
//
//go:embed schema.sql
var Schema string
