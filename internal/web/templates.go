// Package web renders the server-side HTML pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format("2 Jan 2006")
	},
	"datetime": func(t time.Time) string {
		return t.Format("2 Jan 2006 15:04")
	},
	"lower": strings.ToLower,
	"title": func(s string) string {
		if s == "" {
			return s
		}
		b := []byte(s)
		if b[0] >= 'a' && b[0] <= 'z' {
			b[0] -= 'a' - 'A'
		}
		return string(b)
	},
}

type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page against the shared layout. Parse errors
// are startup failures, not per-request ones.
func NewRenderer() (*Renderer, error) {
	names := []string{
		"login",
		"employee_dashboard",
		"employee_compliance",
		"employee_leave",
		"hr_dashboard",
		"hr_compliance",
		"hr_leave",
		"compliance_submit",
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.New("layout.gohtml").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.gohtml", "templates/"+name+".gohtml")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout.gohtml", data)
}
