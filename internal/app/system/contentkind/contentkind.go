// Package contentkind classifies user-authored text so renderers can pick
// a presentation without re-deriving the heuristics.
package contentkind

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Kind is the detected content type of a body of text.
type Kind int

const (
	PlainText Kind = iota
	Math
	Table
	Code
	Mixed
)

var names = [...]string{
	PlainText: "plain",
	Math:      "math",
	Table:     "table",
	Code:      "code",
	Mixed:     "mixed",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return names[k]
}

// MarshalJSON encodes the kind as its name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts the names produced by MarshalJSON.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for i, n := range names {
		if n == s {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("contentkind: unknown kind %q", s)
}

var (
	// $$...$$, \[...\], \(...\), environments and common commands.
	blockMath  = regexp.MustCompile(`(?s)\$\$.+?\$\$|\\\[.+?\\\]|\\\(.+?\\\)|\\begin\{(equation|align|matrix|pmatrix|bmatrix|cases)\*?\}`)
	mathMacro  = regexp.MustCompile(`\\(frac|sqrt|sum|int|lim|alpha|beta|gamma|delta|theta|pi|sigma|infty|cdot|times|leq|geq|neq|approx)\b`)
	inlineMath = regexp.MustCompile(`(^|[^\\$])\$[^\s$](?:[^$\n]*[^\s$])?\$`)

	// A markdown table needs a header separator row such as |---|:--:|.
	tableSep = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)+\|?\s*$`)

	fence      = regexp.MustCompile("(?m)^\\s*(```|~~~)")
	inlineCode = regexp.MustCompile("`[^`\n]+`")
)

// Classify inspects s and reports whether it holds math, a table, code, a
// mix of those, or plain text.
func Classify(s string) Kind {
	if strings.TrimSpace(s) == "" {
		return PlainText
	}
	var found []Kind
	if HasCode(s) {
		found = append(found, Code)
	}
	if HasTable(s) {
		found = append(found, Table)
	}
	if HasMath(s) {
		found = append(found, Math)
	}
	switch len(found) {
	case 0:
		return PlainText
	case 1:
		return found[0]
	default:
		return Mixed
	}
}

// HasMath reports whether s contains LaTeX-style math.
func HasMath(s string) bool {
	s = stripCode(s)
	return blockMath.MatchString(s) || mathMacro.MatchString(s) || inlineMath.MatchString(s)
}

// HasTable reports whether s contains a markdown pipe table.
func HasTable(s string) bool {
	return tableSep.MatchString(stripCode(s))
}

// HasCode reports whether s contains a fenced block or inline code span.
func HasCode(s string) bool {
	return fence.MatchString(s) || inlineCode.MatchString(s)
}

// stripCode removes fenced blocks and inline spans so their contents are
// not mistaken for math or tables.
func stripCode(s string) string {
	if !HasCode(s) {
		return s
	}
	var b strings.Builder
	inFence := false
	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		b.WriteString(inlineCode.ReplaceAllString(line, ""))
		b.WriteByte('\n')
	}
	return b.String()
}
