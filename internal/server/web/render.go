// Package web holds the HTTP side of the binaries: the fiber server, its
// middleware and the route handlers of the hello, site, auth and forms
// applications.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"

	"github.com/dmitrijs2005/formkeeper/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "layout.html"

type Link struct {
	Href  string
	Label string
}

// Page is the data every template receives.
type Page struct {
	Title    string
	Nav      []Link
	Flashes  []string
	User     *models.User
	Backends []string
}

// Renderer executes the embedded pages, each one inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, n := range names {
		name := path.Base(n)
		if name == layoutTemplate {
			continue
		}
		t, err := template.New(layoutTemplate).ParseFS(templateFS, "templates/"+layoutTemplate, n)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{pages: pages}, nil
}

func (r *Renderer) Render(c *fiber.Ctx, status int, page string, data Page) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutTemplate, data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	c.Status(status).Type("html", "utf-8")
	return c.Send(buf.Bytes())
}
