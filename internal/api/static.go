package api

import (
	"embed"
	"html/template"
)

//go:embed templates/index.html.tmpl
var templateFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFiles, "templates/index.html.tmpl"))
