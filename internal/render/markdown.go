// Package render turns assistant Markdown into sanitized HTML for the web
// widget and into styled text for the terminal widget.
package render

import (
	"bytes"
	"html"
	"log"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)
	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	return p
}

// UnsafeHTML converts Markdown to HTML without sanitizing. Raw HTML in the
// source is passed through.
func UnsafeHTML(source string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		log.Printf("[render] markdown conversion failed, falling back to escaped text: %v", err)
		return "<p>" + Escape(source) + "</p>"
	}
	return buf.String()
}

// HTML converts Markdown to HTML and strips anything outside the
// user-generated-content policy (scripts, event handlers, javascript: URLs).
func HTML(source string) string {
	return Sanitize(UnsafeHTML(source))
}

// Sanitize applies the HTML policy to an already rendered fragment.
func Sanitize(fragment string) string {
	return policy.Sanitize(fragment)
}

// Escape renders text as inert HTML.
func Escape(text string) string {
	return html.EscapeString(text)
}
