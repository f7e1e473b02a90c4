package choropleth

import (
	"embed"
	"io/fs"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html templates/**/*.html
var embeddedTemplates embed.FS

// NewTemplateRenderer creates a go-template renderer backed by the embedded
// templates. Template names resolve inside the embed, so the working
// directory does not matter.
func NewTemplateRenderer() (Renderer, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, err
	}
	return template.NewRenderer(
		template.WithFS(sub),
		template.WithExtension(".html"),
	)
}
