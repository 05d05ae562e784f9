// Package view renders a request state. It only reads state; nothing here
// triggers requests.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DoyleJ11/gops-apitest/internal/apiclient"
	"github.com/DoyleJ11/gops-apitest/internal/state"
)

const (
	Title       = "Spring Boot API Test"
	LoadingText = "Calling Spring Boot API..."
	BusyLabel   = "Testing..."
	HomeHref    = "/"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Line struct {
	Label string
	Value string
}

type Button struct {
	Label    string
	Action   string
	Disabled bool
}

// Page is everything the console template needs. Loading, Error and Lines are
// mutually exclusive: at most one block renders.
type Page struct {
	Title       string
	Code        string
	Buttons     []Button
	Loading     bool
	LoadingText string
	Error       string
	HasError    bool
	HasResponse bool
	Lines       []Line
	HomeHref    string
}

// Label title-cases a field name. Casers are stateful, so one per call.
func Label(field string) string {
	return cases.Title(language.English).String(field)
}

// Lines lists the fields worth showing: absent and empty fields are skipped.
func Lines(r apiclient.Response) []Line {
	fields := r.Fields()
	out := make([]Line, 0, len(fields))
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		out = append(out, Line{Label: Label(f.Name), Value: f.Value})
	}
	return out
}

func buttonLabel(busy bool, e apiclient.Endpoint) string {
	if busy {
		return BusyLabel
	}
	return "Test " + e.Path()
}

func NewPage(code string, s state.State) Page {
	flags := state.FlagsOf(s)

	p := Page{
		Title:       Title,
		Code:        code,
		Loading:     flags.Loading,
		LoadingText: LoadingText,
		HomeHref:    HomeHref,
	}
	for _, e := range []apiclient.Endpoint{apiclient.EndpointHealth, apiclient.EndpointHello} {
		p.Buttons = append(p.Buttons, Button{
			Label:    buttonLabel(flags.Loading, e),
			Action:   fmt.Sprintf("/console/%s/%s", code, e),
			Disabled: flags.Loading,
		})
	}
	if flags.Error != nil {
		p.HasError = true
		p.Error = *flags.Error
	}
	if flags.Response != nil {
		p.HasResponse = true
		p.Lines = Lines(*flags.Response)
	}
	return p
}

func RenderHTML(w io.Writer, p Page) error {
	return pages.ExecuteTemplate(w, "console.html", p)
}

type Home struct {
	Title string
}

func RenderHome(w io.Writer) error {
	return pages.ExecuteTemplate(w, "home.html", Home{Title: Title})
}

// RenderText is the terminal rendering used by the CLI.
func RenderText(w io.Writer, s state.State) error {
	flags := state.FlagsOf(s)
	var err error
	write := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	switch {
	case flags.Loading:
		write("%s\n", LoadingText)
	case flags.Error != nil:
		write("Error:\n  %s\n", *flags.Error)
	case flags.Response != nil:
		write("API Response:\n")
		for _, l := range Lines(*flags.Response) {
			write("  %s: %s\n", l.Label, l.Value)
		}
	}
	return err
}
