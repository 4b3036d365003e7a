// Package templates holds the HTML served by both services.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var files embed.FS

// IndexName is the template name handlers render.
const IndexName = "index.html"

// IndexData feeds index.html. Result and ImageURL are empty on the initial
// GET.
type IndexData struct {
	Title    string
	Result   string
	ImageURL string
}

func Parse() (*template.Template, error) {
	return template.ParseFS(files, "*.html")
}
