// Package migrations embeds the goose migrations of every schema.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed storefront/*.sql
var files embed.FS

// Storefront returns the storefront schema migrations.
func Storefront() fs.FS {
	sub, err := fs.Sub(files, "storefront")
	if err != nil {
		panic(err)
	}
	return sub
}
