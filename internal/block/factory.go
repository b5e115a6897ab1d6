package block

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var idSeq atomic.Uint64

// NewID returns a block id that is unique for the lifetime of the process:
// block_<unix-ms>_<sequence>_<random>.
func NewID() string {
	n := idSeq.Add(1)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("block_%d_%s_%s", time.Now().UnixMilli(), strconv.FormatUint(n, 36), suffix)
}

// New creates a block with a fresh id around data, stored as given.
func New(data Data) Block {
	return Block{ID: NewID(), Data: data}
}

// NewEmpty returns the default block: an empty paragraph.
func NewEmpty() Block {
	return NewParagraph("")
}

// NewParagraph creates a paragraph block with default styles.
func NewParagraph(text string) Block {
	return New(ParagraphData{Text: text, Styles: DefaultStyles(TypeParagraph)})
}

// NewHeading creates a heading block with the level's default styles.
func NewHeading(level Level, text string) Block {
	return New(HeadingData{Level: level, Text: text, Styles: DefaultHeadingStyles(level)})
}

// NewList creates a list block. With no items the list starts with one
// empty item.
func NewList(style ListStyle, items ...string) Block {
	if len(items) == 0 {
		items = []string{""}
	}
	return New(ListData{
		Style:  style,
		Items:  append([]string(nil), items...),
		Styles: DefaultStyles(TypeList),
	})
}

// NewImage creates an image block.
func NewImage(url, alt string) Block {
	return New(ImageData{URL: url, Alt: alt, Styles: DefaultStyles(TypeImage)})
}

// NewYouTube creates a video embed block, deriving the video id from url.
func NewYouTube(url string) Block {
	return New(YouTubeData{URL: url, VideoID: ExtractVideoID(url), Styles: DefaultStyles(TypeYouTube)})
}

// NewDivider creates a divider block.
func NewDivider() Block {
	return New(DividerData{Styles: DefaultStyles(TypeDivider)})
}

// NewOfType creates a block of type t with every field at its default.
func NewOfType(t Type) (Block, error) {
	switch t {
	case TypeParagraph:
		return NewParagraph(""), nil
	case TypeHeading:
		return NewHeading(H1, ""), nil
	case TypeList:
		return NewList(ListUnordered), nil
	case TypeImage:
		return NewImage("", ""), nil
	case TypeYouTube:
		return NewYouTube(""), nil
	case TypeDivider:
		return NewDivider(), nil
	}
	return Block{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

var videoURLRe = regexp.MustCompile(`^.*((youtu.be/)|(v/)|(/u/\w/)|(embed/)|(watch\?))\??v?=?([^#&?]*).*`)

// ExtractVideoID returns the 11-character YouTube video id found in url, or
// "" when url does not match a known watch, short, embed, v or user link.
func ExtractVideoID(url string) string {
	if url == "" {
		return ""
	}
	m := videoURLRe.FindStringSubmatch(url)
	if m == nil || len(m[7]) != 11 {
		return ""
	}
	return m[7]
}
