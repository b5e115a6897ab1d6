// Package richtext cleans the HTML fragments held by text-bearing blocks and
// reduces them to plain text for indexing.
package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/starford/blockdoc/internal/block"
)

var (
	fragmentPolicy = newFragmentPolicy()
	stripPolicy    = bluemonday.StrictPolicy()

	breakRe = regexp.MustCompile(`(?i)<br\s*/?>|</(p|div|li|h[1-6])>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

func newFragmentPolicy() *bluemonday.Policy {
	colorRe := regexp.MustCompile(`^(#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})|rgb\(\d+,\s*\d+,\s*\d+\)|inherit)$`)
	sizeRe := regexp.MustCompile(`^(\d+(px|em|rem|pt|%)?|inherit)$`)

	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style").OnElements("span", "mark")
	p.AllowStyles("color", "background-color").Matching(colorRe).Globally()
	p.AllowStyles("font-size").Matching(sizeRe).Globally()
	p.AllowStyles("text-decoration").MatchingEnum("underline", "line-through").Globally()
	return p
}

// Sanitize removes scripts, event handlers and disallowed markup from a rich
// text fragment while keeping inline formatting and links.
func Sanitize(fragment string) string {
	if fragment == "" {
		return ""
	}
	return fragmentPolicy.Sanitize(fragment)
}

// PlainText strips every tag from fragment, decodes entities and collapses
// whitespace. Line-level elements become spaces.
func PlainText(fragment string) string {
	if fragment == "" {
		return ""
	}
	s := breakRe.ReplaceAllString(fragment, " ")
	s = html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// SanitizePatch returns a copy of patch with its rich text fields
// ("text" and "items") sanitized. Values of other types pass through.
func SanitizePatch(patch block.Patch) block.Patch {
	out := make(block.Patch, len(patch))
	for k, v := range patch {
		switch k {
		case "text":
			if s, ok := v.(string); ok {
				v = Sanitize(s)
			}
		case "items":
			v = sanitizeItems(v)
		}
		out[k] = v
	}
	return out
}

func sanitizeItems(v any) any {
	switch items := v.(type) {
	case []string:
		out := make([]string, len(items))
		for i, s := range items {
			out[i] = Sanitize(s)
		}
		return out
	case []any:
		out := make([]any, len(items))
		for i, item := range items {
			if s, ok := item.(string); ok {
				out[i] = Sanitize(s)
			} else {
				out[i] = item
			}
		}
		return out
	}
	return v
}

// SanitizeBlock returns a copy of b with its rich text fields sanitized.
func SanitizeBlock(b block.Block) block.Block {
	b = b.Clone()
	switch d := b.Data.(type) {
	case block.ParagraphData:
		d.Text = Sanitize(d.Text)
		b.Data = d
	case block.HeadingData:
		d.Text = Sanitize(d.Text)
		b.Data = d
	case block.ListData:
		for i, item := range d.Items {
			d.Items[i] = Sanitize(item)
		}
		b.Data = d
	}
	return b
}

// Text returns the plain text carried by b: heading and paragraph text, or
// list items joined by spaces. Media and dividers carry none.
func Text(b block.Block) string {
	switch d := b.Data.(type) {
	case block.ParagraphData:
		return PlainText(d.Text)
	case block.HeadingData:
		return PlainText(d.Text)
	case block.ListData:
		parts := make([]string, 0, len(d.Items))
		for _, item := range d.Items {
			if t := PlainText(item); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, " ")
	case block.ImageData:
		return strings.TrimSpace(d.Alt)
	}
	return ""
}
