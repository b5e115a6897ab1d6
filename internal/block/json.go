package block

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type wireBlock struct {
	ID   string          `json:"id"`
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes b as {"id", "type", "data"}.
func (b Block) MarshalJSON() ([]byte, error) {
	data := json.RawMessage("null")
	if b.Data != nil {
		raw, err := json.Marshal(b.Data)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(wireBlock{ID: b.ID, Type: b.Type(), Data: data})
}

// UnmarshalJSON decodes {"id", "type", "data"}, picking the payload struct
// from type. Unknown types fail with ErrUnknownType.
func (b *Block) UnmarshalJSON(raw []byte) error {
	var w wireBlock
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	data, err := DecodeData(w.Type, w.Data)
	if err != nil {
		return err
	}
	b.ID = w.ID
	b.Data = data
	return nil
}

// DecodeData decodes a JSON payload into the struct of variant t. A missing
// or null payload decodes to the zero payload of t.
func DecodeData(t Type, raw []byte) (Data, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("null")
	}
	switch t {
	case TypeParagraph:
		return decodeInto[ParagraphData](raw)
	case TypeHeading:
		return decodeInto[HeadingData](raw)
	case TypeList:
		return decodeInto[ListData](raw)
	case TypeImage:
		return decodeInto[ImageData](raw)
	case TypeYouTube:
		return decodeInto[YouTubeData](raw)
	case TypeDivider:
		return decodeInto[DividerData](raw)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
}

func decodeInto[T Data](raw []byte) (Data, error) {
	var d T
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("block: decode %s data: %w", d.Kind(), err)
	}
	return d, nil
}

// The payload encoders add the derived htmlTag so documents stay readable by
// renderers that switch on it. htmlTag is ignored when decoding.

func (d ParagraphData) MarshalJSON() ([]byte, error) {
	type plain ParagraphData
	return json.Marshal(struct {
		plain
		HTMLTag string `json:"htmlTag"`
	}{plain(d), d.HTMLTag()})
}

func (d HeadingData) MarshalJSON() ([]byte, error) {
	type plain HeadingData
	return json.Marshal(struct {
		plain
		HTMLTag string `json:"htmlTag"`
	}{plain(d), d.HTMLTag()})
}

func (d ListData) MarshalJSON() ([]byte, error) {
	type plain ListData
	return json.Marshal(struct {
		plain
		HTMLTag string `json:"htmlTag"`
	}{plain(d), d.HTMLTag()})
}

func (d ImageData) MarshalJSON() ([]byte, error) {
	type plain ImageData
	return json.Marshal(struct {
		plain
		HTMLTag string `json:"htmlTag"`
	}{plain(d), d.HTMLTag()})
}

func (d YouTubeData) MarshalJSON() ([]byte, error) {
	type plain YouTubeData
	return json.Marshal(struct {
		plain
		HTMLTag string `json:"htmlTag"`
	}{plain(d), d.HTMLTag()})
}

func (d DividerData) MarshalJSON() ([]byte, error) {
	type plain DividerData
	return json.Marshal(struct {
		plain
		HTMLTag string `json:"htmlTag"`
	}{plain(d), d.HTMLTag()})
}
