/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"
)

// Renderer renders a named page with the given data
type Renderer interface {
	RenderTemplate(wr io.Writer, name string, data any) error
}

// PageRenderer renderes web pages throuh a set of templates
type PageRenderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"clock": func(t time.Time) string { return t.Format("15:04") },
	"stamp": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"initial": func(s string) string {
		for _, r := range strings.TrimSpace(s) {
			return strings.ToUpper(string(r))
		}
		return "?"
	},
}

// Creates a page renderer with the given set:
//
//	The key is a template path
//	The value is a set of paths of templates with layouts
func NewPageRenderer(tmplMap map[string][]string) (*PageRenderer, error) {
	templates := make(map[string]*template.Template)

	for k, v := range tmplMap {
		t, err := template.New(k).Funcs(funcs).ParseFiles(v...)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", k, err)
		}
		templates[k] = t
	}
	return &PageRenderer{templates: templates}, nil
}

// Renders the template with name "name"
// It returns an error if the corresponding template is not present.
// Nothing reaches wr when execution fails halfway.
func (pr *PageRenderer) RenderTemplate(wr io.Writer, name string, data any) error {
	t, ok := pr.templates[name]
	if !ok {
		return fmt.Errorf("Template is missing{%s}", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(wr)
	return err
}
