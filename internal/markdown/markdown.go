// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markdown converts post bodies from Markdown to sanitized HTML.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// sanitizer strips dangerous elements (scripts, event handlers) from the
// converted HTML. Post bodies are author-supplied, so they go through the
// same UGC policy as any other untrusted content.
var sanitizer = bluemonday.UGCPolicy()

var converter = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// ToHTML converts Markdown source to sanitized HTML.
func ToHTML(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes())), nil //nolint:gosec // sanitized above
}
