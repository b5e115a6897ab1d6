package docservice

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/blockdoc/internal/apperr"
	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/storage"
)

// nameRe admits slash-separated segments that never start with a dot, so
// names cannot climb out of the root or address hidden files.
var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._ -]*(/[A-Za-z0-9_-][A-Za-z0-9._ -]*)*$`)

// ValidateName checks a document name such as "roadmap" or "team/standup".
func ValidateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, 200),
		validation.Match(nameRe),
	)
	if err != nil {
		return fmt.Errorf("%w: name %q: %v", apperr.ErrInvalidArgument, name, err)
	}
	return nil
}

// PathOf maps a document name to its storage path.
func PathOf(name string) string { return name + storage.Ext }

// NameOf maps a storage path back to a document name.
func NameOf(path string) string { return strings.TrimSuffix(path, storage.Ext) }

// BlockSpec describes a block to insert. Only the fields relevant to Type are
// read; everything else takes the type's default.
type BlockSpec struct {
	Type  block.Type      `json:"type"`
	Text  string          `json:"text,omitempty"`
	Level block.Level     `json:"level,omitempty"`
	Style block.ListStyle `json:"style,omitempty"`
	Items []string        `json:"items,omitempty"`
	URL   string          `json:"url,omitempty"`
	Alt   string          `json:"alt,omitempty"`
}

// Validate implements validation.Validatable.
func (s BlockSpec) Validate() error {
	types := make([]any, len(block.Types))
	for i, t := range block.Types {
		types[i] = t
	}
	return validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.Required, validation.In(types...)),
		validation.Field(&s.Level, validation.When(s.Type == block.TypeHeading && s.Level != 0,
			validation.In(block.H1, block.H2, block.H3))),
		validation.Field(&s.Style, validation.When(s.Type == block.TypeList && s.Style != "",
			validation.In(block.ListUnordered, block.ListOrdered))),
	)
}

// Build validates the spec and creates the block with a fresh id.
func (s BlockSpec) Build() (block.Block, error) {
	if err := s.Validate(); err != nil {
		return block.Block{}, fmt.Errorf("%w: %v", apperr.ErrInvalidArgument, err)
	}
	switch s.Type {
	case block.TypeParagraph:
		return block.NewParagraph(s.Text), nil
	case block.TypeHeading:
		level := s.Level
		if level == 0 {
			level = block.H1
		}
		return block.NewHeading(level, s.Text), nil
	case block.TypeList:
		style := s.Style
		if style == "" {
			style = block.ListUnordered
		}
		return block.NewList(style, s.Items...), nil
	case block.TypeImage:
		return block.NewImage(s.URL, s.Alt), nil
	case block.TypeYouTube:
		return block.NewYouTube(s.URL), nil
	}
	return block.NewOfType(s.Type)
}
