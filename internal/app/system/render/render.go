// Package render turns user-authored post, note and answer bodies into
// safe HTML.
package render

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// md renders GitHub-flavored markdown. Raw HTML in the source is escaped
// (WithUnsafe is not set) and the output is sanitized again below.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "code", "pre", "span")
	p.AllowAttrs("style").OnElements("table", "th", "td")
	p.AllowStyles("text-align", "width").OnElements("table", "th", "td")
	p.AllowElements("u", "s", "mark", "sub", "sup")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize strips anything outside the allowed tag and attribute set.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML is Sanitize typed for templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

var tagLike = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// IsPlainText reports whether s has no HTML tags.
func IsPlainText(s string) bool {
	return !tagLike.MatchString(s)
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	esc := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(esc, "\n", "<br>") + "</p>"
}

// Markdown renders src as sanitized HTML. On a renderer error the source is
// returned escaped.
func Markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(PlainTextToHTML(src))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}
