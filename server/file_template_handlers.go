package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	layoutTemplate    = "layout.html"
	displayTimeLayout = "2006-01-02 15:04:05"
)

var templateFuncs = template.FuncMap{
	"displayTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format(displayTimeLayout)
	},
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

type pages struct {
	login     *template.Template
	register  *template.Template
	dashboard *template.Template
	loading   *template.Template
}

func parsePages() (*pages, error) {
	var (
		p   pages
		err error
	)
	for name, dst := range map[string]**template.Template{
		"login.html":     &p.login,
		"register.html":  &p.register,
		"dashboard.html": &p.dashboard,
		"loading.html":   &p.loading,
	} {
		if *dst, err = ParseTemplate(name); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// render executes the layout with page data
func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	w.Header().Set("Content-Type", contentTypeHTML)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, layoutTemplate, data); err != nil {
		log.Err(err).Str("template", tmpl.Name()).Msg("Failed to render template")
	}
}
