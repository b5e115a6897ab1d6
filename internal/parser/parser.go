// Package parser derives searchable metadata from stored document JSON.
package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/blockdoc/internal/apperr"
	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/richtext"
	"github.com/starford/blockdoc/internal/serializer"
)

const maxTitleRunes = 80

// Result holds what the index needs to know about one document.
type Result struct {
	Blocks     []block.Block
	Title      string
	Body       string
	Media      []string
	BlockCount int
}

// Parse validates and deserializes a stored document and extracts its
// metadata. Structurally invalid JSON is rejected with apperr.ErrInvalidDocument.
func Parse(data []byte) (*Result, error) {
	if !serializer.ValidateJSON(data) {
		return nil, fmt.Errorf("parser: %w", apperr.ErrInvalidDocument)
	}
	return FromBlocks(serializer.Deserialize(data)), nil
}

// FromBlocks extracts metadata from an in-memory sequence.
func FromBlocks(blocks []block.Block) *Result {
	var body []string
	for _, b := range blocks {
		if t := richtext.Text(b); t != "" {
			body = append(body, t)
		}
	}
	return &Result{
		Blocks:     blocks,
		Title:      deriveTitle(blocks),
		Body:       strings.Join(body, "\n"),
		Media:      extractMedia(blocks),
		BlockCount: len(blocks),
	}
}

// deriveTitle returns the text of the first heading, else the first non-empty
// paragraph cut to maxTitleRunes, else "".
func deriveTitle(blocks []block.Block) string {
	for _, b := range blocks {
		if h, ok := b.Data.(block.HeadingData); ok {
			if t := richtext.PlainText(h.Text); t != "" {
				return t
			}
		}
	}
	for _, b := range blocks {
		if p, ok := b.Data.(block.ParagraphData); ok {
			if t := richtext.PlainText(p.Text); t != "" {
				return truncate(t, maxTitleRunes)
			}
		}
	}
	return ""
}

// extractMedia returns deduplicated image and video urls in document order.
func extractMedia(blocks []block.Block) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, b := range blocks {
		var u string
		switch d := b.Data.(type) {
		case block.ImageData:
			u = d.URL
		case block.YouTubeData:
			u = d.URL
		}
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}
