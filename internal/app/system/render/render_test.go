package render_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/channelhub/internal/app/system/render"
)

func TestSanitize_Empty(t *testing.T) {
	if got := render.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	got := render.Sanitize("<p>Hello</p><script>alert('xss')</script>")
	if got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	got := render.Sanitize(`<a href="javascript:alert('xss')">Click</a>`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("expected javascript: href removed, got %q", got)
	}
}

func TestSanitize_AllowsTables(t *testing.T) {
	in := `<table><thead><tr><th>Header</th></tr></thead><tbody><tr><td>Cell</td></tr></tbody></table>`
	if got := render.Sanitize(in); got != in {
		t.Errorf("expected table preserved, got %q", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"Hello, World!", true},
		{"5 < 10", true},
		{"5 > 3", true},
		{"<p>Hello</p>", false},
	}
	for _, tt := range tests {
		if got := render.IsPlainText(tt.in); got != tt.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlainTextToHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Hello", "<p>Hello</p>"},
		{"Line 1\nLine 2", "<p>Line 1<br>Line 2</p>"},
		{"A & B", "<p>A &amp; B</p>"},
	}
	for _, tt := range tests {
		if got := render.PlainTextToHTML(tt.in); got != tt.want {
			t.Errorf("PlainTextToHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	got := string(render.Markdown("**bold** and _it_"))
	if !strings.Contains(got, "<strong>bold</strong>") || !strings.Contains(got, "<em>it</em>") {
		t.Errorf("unexpected emphasis rendering: %q", got)
	}
}

func TestMarkdown_Table(t *testing.T) {
	got := string(render.Markdown("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<td>1</td>") {
		t.Errorf("expected GFM table, got %q", got)
	}
}

func TestMarkdown_RawHTMLIsNotExecuted(t *testing.T) {
	got := string(render.Markdown("hi <script>alert(1)</script>"))
	if strings.Contains(got, "<script>") {
		t.Errorf("script survived rendering: %q", got)
	}
}

func TestMarkdown_Empty(t *testing.T) {
	if got := render.Markdown("   "); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
