// Package block defines the typed content blocks a document is composed of.
//
// A Block pairs an immutable identity with a variant payload. The payload is
// a closed sum type: Data is sealed by unexported methods and implemented
// only by the six variant structs in this package, so a block can never hold
// fields belonging to another variant.
package block

import (
	"errors"
	"maps"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Type identifies a block variant.
type Type string

// Block variants.
const (
	TypeParagraph Type = "paragraph"
	TypeHeading   Type = "heading"
	TypeList      Type = "list"
	TypeImage     Type = "image"
	TypeYouTube   Type = "youtube"
	TypeDivider   Type = "divider"
)

// Types lists every variant in menu order.
var Types = []Type{TypeParagraph, TypeHeading, TypeList, TypeImage, TypeYouTube, TypeDivider}

// Valid reports whether t names a known variant.
func (t Type) Valid() bool {
	return slices.Contains(Types, t)
}

// Level is a heading level.
type Level int

// Heading levels.
const (
	H1 Level = 1
	H2 Level = 2
	H3 Level = 3
)

// ListStyle selects bulleted or numbered rendering of a list block.
type ListStyle string

// List styles.
const (
	ListUnordered ListStyle = "unordered"
	ListOrdered   ListStyle = "ordered"
)

var (
	// ErrUnknownType is returned when a payload is requested for a type outside the closed set.
	ErrUnknownType = errors.New("block: unknown type")
	// ErrInvalidPatch is returned when a data patch cannot be applied to the block's variant.
	ErrInvalidPatch = errors.New("block: invalid patch")
)

// Styles maps CSS-like property names to values. A missing key means unset.
type Styles map[string]string

// Clone returns an independent copy of s. A nil map clones to nil.
func (s Styles) Clone() Styles {
	return maps.Clone(s)
}

// Merge returns a new map holding s overlaid with updates.
func (s Styles) Merge(updates Styles) Styles {
	out := make(Styles, len(s)+len(updates))
	maps.Copy(out, s)
	maps.Copy(out, updates)
	return out
}

// Data is the variant-specific payload of a block.
type Data interface {
	// Kind returns the variant the payload belongs to.
	Kind() Type
	// HTMLTag returns the element a renderer should emit for the block.
	HTMLTag() string
	// Validate checks variant-specific constraints.
	Validate() error

	styles() Styles
	withStyles(Styles) Data
	clone() Data
}

// Block is one typed, styleable unit of document content.
//
// Blocks are values: every update helper returns a new Block and leaves the
// receiver untouched.
type Block struct {
	ID   string
	Data Data
}

// Type returns the block's variant, or "" for a zero Block.
func (b Block) Type() Type {
	if b.Data == nil {
		return ""
	}
	return b.Data.Kind()
}

// Styles returns a copy of the block's styles.
func (b Block) Styles() Styles {
	if b.Data == nil {
		return nil
	}
	return b.Data.styles().Clone()
}

// Clone returns a deep copy of b, sharing no maps or slices with it.
func (b Block) Clone() Block {
	if b.Data == nil {
		return b
	}
	return Block{ID: b.ID, Data: b.Data.clone()}
}

// Validate checks the block identity and its payload.
func (b Block) Validate() error {
	return validation.Errors{
		"id":   validation.Validate(b.ID, validation.Required),
		"data": validation.Validate(b.Data, validation.NotNil),
	}.Filter()
}

// ParagraphData is the payload of a paragraph block.
type ParagraphData struct {
	Text   string `json:"text"`
	Styles Styles `json:"styles"`
}

// Kind reports TypeParagraph.
func (ParagraphData) Kind() Type { return TypeParagraph }

// HTMLTag is always p.
func (ParagraphData) HTMLTag() string { return "p" }

// Validate accepts any paragraph, including empty text.
func (ParagraphData) Validate() error { return nil }

func (d ParagraphData) styles() Styles { return d.Styles }
func (d ParagraphData) clone() Data {
	d.Styles = d.Styles.Clone()
	return d
}
func (d ParagraphData) withStyles(s Styles) Data {
	d.Styles = s
	return d
}

// HeadingData is the payload of a heading block.
type HeadingData struct {
	Level  Level  `json:"level"`
	Text   string `json:"text"`
	Styles Styles `json:"styles"`
}

// Kind reports TypeHeading.
func (HeadingData) Kind() Type { return TypeHeading }

func (d HeadingData) styles() Styles { return d.Styles }
func (d HeadingData) clone() Data {
	d.Styles = d.Styles.Clone()
	return d
}
func (d HeadingData) withStyles(s Styles) Data {
	d.Styles = s
	return d
}

// HTMLTag returns h1, h2 or h3.
func (d HeadingData) HTMLTag() string {
	switch d.Level {
	case H2:
		return "h2"
	case H3:
		return "h3"
	default:
		return "h1"
	}
}

// Validate checks the heading level.
func (d HeadingData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Level, validation.Required, validation.In(H1, H2, H3)),
	)
}

// ListData is the payload of a list block. Items are rich HTML fragments.
type ListData struct {
	Style  ListStyle `json:"style"`
	Items  []string  `json:"items"`
	Styles Styles    `json:"styles"`
}

// Kind reports TypeList.
func (ListData) Kind() Type { return TypeList }

func (d ListData) styles() Styles { return d.Styles }
func (d ListData) withStyles(s Styles) Data {
	d.Styles = s
	return d
}

func (d ListData) clone() Data {
	d.Styles = d.Styles.Clone()
	d.Items = slices.Clone(d.Items)
	return d
}

// HTMLTag returns ol for ordered lists and ul otherwise.
func (d ListData) HTMLTag() string {
	if d.Style == ListOrdered {
		return "ol"
	}
	return "ul"
}

// Validate checks the list style.
func (d ListData) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Style, validation.Required, validation.In(ListUnordered, ListOrdered)),
	)
}

// ImageData is the payload of an image block.
type ImageData struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Styles Styles `json:"styles"`
}

// Kind reports TypeImage.
func (ImageData) Kind() Type { return TypeImage }

// HTMLTag is always img.
func (ImageData) HTMLTag() string { return "img" }

// Validate accepts any image, including one with an empty URL.
func (ImageData) Validate() error { return nil }

func (d ImageData) styles() Styles { return d.Styles }
func (d ImageData) clone() Data {
	d.Styles = d.Styles.Clone()
	return d
}
func (d ImageData) withStyles(s Styles) Data {
	d.Styles = s
	return d
}

// YouTubeData is the payload of a video embed block. VideoID is derived
// from URL and is empty when the URL is not recognised.
type YouTubeData struct {
	URL     string `json:"url"`
	VideoID string `json:"videoId"`
	Styles  Styles `json:"styles"`
}

// Kind reports TypeYouTube.
func (YouTubeData) Kind() Type { return TypeYouTube }

// HTMLTag is always iframe.
func (YouTubeData) HTMLTag() string { return "iframe" }

// Validate accepts any embed. An unrecognised URL leaves VideoID empty.
func (YouTubeData) Validate() error { return nil }

func (d YouTubeData) styles() Styles { return d.Styles }
func (d YouTubeData) clone() Data {
	d.Styles = d.Styles.Clone()
	return d
}
func (d YouTubeData) withStyles(s Styles) Data {
	d.Styles = s
	return d
}

// DividerData is the payload of a divider block.
type DividerData struct {
	Styles Styles `json:"styles"`
}

// Kind reports TypeDivider.
func (DividerData) Kind() Type { return TypeDivider }

// HTMLTag is always hr.
func (DividerData) HTMLTag() string { return "hr" }

// Validate accepts every divider.
func (DividerData) Validate() error { return nil }

func (d DividerData) styles() Styles { return d.Styles }
func (d DividerData) clone() Data {
	d.Styles = d.Styles.Clone()
	return d
}
func (d DividerData) withStyles(s Styles) Data {
	d.Styles = s
	return d
}
