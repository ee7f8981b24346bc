// Package web renders the sign-in gated page shell.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PageTemplate is the name handlers pass to gin's c.HTML.
const PageTemplate = "page"

const (
	ViewLoading = "loading"
	ViewSignIn  = "signin"
	ViewUpgrade = "upgrade"
	ViewApp     = "app"
)

// Meta is the document head content.
type Meta struct {
	Title       string
	Description string
}

// PageState is what the shell knows about the caller.
type PageState struct {
	Loaded   bool
	SignedIn bool
	Premium  bool
}

// ViewFor picks the view for state. Nothing but the loading view renders
// until the session state is known.
func ViewFor(s PageState) string {
	switch {
	case !s.Loaded:
		return ViewLoading
	case !s.SignedIn:
		return ViewSignIn
	case !s.Premium:
		return ViewUpgrade
	default:
		return ViewApp
	}
}

// Data is passed to PageTemplate.
type Data struct {
	Meta   Meta
	Lang   string
	View   string
	Copy   Copy
	UserID string
}

// NewData assembles template data for state in language l.
func NewData(meta Meta, l string, state PageState, userID string) Data {
	c, l := CopyFor(l)
	return Data{Meta: meta, Lang: l, View: ViewFor(state), Copy: c, UserID: userID}
}

// Templates parses the embedded templates. Callers hand the result to
// gin's Engine.SetHTMLTemplate.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.tmpl")
}
