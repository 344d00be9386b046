// Package web embeds the HTML views of the demo application.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var content embed.FS

// Templates returns the view tree rooted at the templates directory, so
// templates/index.html is the view "/index.html".
func Templates() fs.FS {
	sub, err := fs.Sub(content, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
