// Package assets embeds the page shell served by the web server.
package assets

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

var (
	//go:embed index.html.tpl
	indexTemplate string
	//go:embed style.css
	styleCSS string
	//go:embed script.js
	scriptJS string
	//go:embed favicon.svg
	faviconSVG string
)

// PageData is substituted into the index template.
type PageData struct {
	Title string
	CSS   string
	JS    string
	SVG   string
}

// Page holds the minified documents ready to be served.
type Page struct {
	Index   []byte
	Favicon []byte
}

// Build renders the index page with inlined, minified styles and script.
func Build(title string) (*Page, error) {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	cssMin, err := m.String("text/css", styleCSS)
	if err != nil {
		return nil, fmt.Errorf("minify CSS: %w", err)
	}
	jsMin, err := m.String("text/javascript", scriptJS)
	if err != nil {
		return nil, fmt.Errorf("minify JS: %w", err)
	}
	svgMin, err := m.String("image/svg+xml", faviconSVG)
	if err != nil {
		return nil, fmt.Errorf("minify SVG: %w", err)
	}

	tmpl, err := template.New("index").Parse(indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, PageData{
		Title: title,
		CSS:   cssMin,
		JS:    jsMin,
		SVG:   svgMin,
	})
	if err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}

	finalHTML, err := m.Bytes("text/html", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("minify HTML: %w", err)
	}

	return &Page{Index: finalHTML, Favicon: []byte(svgMin)}, nil
}
