// Package web embeds the HTML templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
)

// Template names.
const (
	LoginTemplate = "login.html"
	UsersTemplate = "users.html"
	UserTemplate  = "user.html"
	ErrorTemplate = "error.html"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses every embedded page together with the shared layout.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"join":      strings.Join,
		"shortRole": func(name string) string { return strings.TrimPrefix(name, "ROLE_") },
		"hasID": func(ids []int64, id int64) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
	}).ParseFS(templateFS, "templates/*.html")
}

// Static returns the asset tree served under /css and /js.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// ErrorPage is the data for ErrorTemplate.
func ErrorPage(status int, message string) map[string]any {
	return map[string]any{"Status": status, "Message": message}
}
