// Package webui renders the browser chat page and the login form.
package webui

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var files embed.FS

var pages = template.Must(template.ParseFS(files, "templates/*.html"))

// Page is the data available to every template.
type Page struct {
	// Prefix is prepended to every link and API call.
	Prefix string
	// Error is shown above the login form.
	Error string
}

// Index renders the chat page.
func Index(w io.Writer, p Page) error { return pages.ExecuteTemplate(w, "index.html", p) }

// Login renders the login form.
func Login(w io.Writer, p Page) error { return pages.ExecuteTemplate(w, "login.html", p) }
