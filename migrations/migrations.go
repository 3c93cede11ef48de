// Package migrations embeds the schema files shipped with the server binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
