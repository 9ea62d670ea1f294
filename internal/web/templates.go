package web

import (
	"embed"
	"encoding/base64"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/ironsheep/image-translate/internal/speech"
)

//go:embed templates/*.html
var templateFS embed.FS

const viewsPattern = "templates/*.html"

// Template renders the embedded html/template views for echo.
type Template struct {
	templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func newTemplate() *Template {
	funcs := template.FuncMap{
		"audioURI": audioURI,
		"imageURI": func(uri string) template.URL { return template.URL(uri) },
	}
	return &Template{
		templates: template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, viewsPattern)),
	}
}

// audioURI embeds audio as a data URI for an <audio> element.
func audioURI(a *speech.Audio) template.URL {
	if a == nil {
		return ""
	}
	return template.URL("data:" + a.MimeType + ";base64," + base64.StdEncoding.EncodeToString(a.Data))
}
