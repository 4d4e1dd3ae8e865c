// Package web embeds the search page and its assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/gcbaptista/imagination-concordance/config"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageData is rendered into the search page. Each feature toggle removes the
// matching control from the page entirely.
type PageData struct {
	Title         string
	Features      config.FeatureSettings
	AllCategories string
	Categories    []string
	Authors       []string
	YearMin       int
	YearMax       int
	Loaded        bool
	StatusMessage string
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// Static returns the embedded assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
