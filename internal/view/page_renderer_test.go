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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemplates(t *testing.T) map[string][]string {
	t.Helper()
	dir := t.TempDir()
	layout := filepath.Join(dir, "base.html")
	page := filepath.Join(dir, "chat.html")
	broken := filepath.Join(dir, "broken.html")

	require.NoError(t, os.WriteFile(layout, []byte(`{{define "header"}}<h1>{{.Title}}</h1>{{end}}`), 0644))
	require.NoError(t, os.WriteFile(page, []byte(`{{template "header" .}}<p>{{initial .Name}} {{clock .At}}</p>`), 0644))
	require.NoError(t, os.WriteFile(broken, []byte(`{{template "header" .}}{{index .Items 3}}`), 0644))

	return map[string][]string{
		"chat.html":   {layout, page},
		"broken.html": {layout, broken},
	}
}

func TestRenderTemplate(t *testing.T) {
	pr, err := NewPageRenderer(writeTemplates(t))
	require.NoError(t, err)

	var out bytes.Buffer
	data := map[string]any{"Title": "Chats", "Name": "ana", "At": time.Date(2026, 1, 1, 9, 5, 0, 0, time.UTC)}
	require.NoError(t, pr.RenderTemplate(&out, "chat.html", data))
	assert.Equal(t, "<h1>Chats</h1><p>A 09:05</p>", out.String())
}

func TestRenderMissingTemplate(t *testing.T) {
	pr, err := NewPageRenderer(writeTemplates(t))
	require.NoError(t, err)

	assert.Error(t, pr.RenderTemplate(&bytes.Buffer{}, "nope.html", nil))
}

func TestRenderFailureWritesNothing(t *testing.T) {
	pr, err := NewPageRenderer(writeTemplates(t))
	require.NoError(t, err)

	var out bytes.Buffer
	err = pr.RenderTemplate(&out, "broken.html", map[string]any{"Title": "x", "Items": []string{"a"}})
	assert.Error(t, err)
	assert.Zero(t, out.Len())
}
