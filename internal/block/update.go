package block

import (
	"encoding/json"
	"fmt"
)

// Patch is a partial payload keyed by JSON field name.
type Patch map[string]any

// UpdateData shallow-merges patch into the block's payload and returns the
// result as a new Block with the same id and type.
//
// Keys the variant does not define are dropped. A patch that changes a
// video block's url without naming videoId re-derives the id.
func UpdateData(b Block, patch Patch) (Block, error) {
	if b.Data == nil {
		return b, fmt.Errorf("%w: block %q has no data", ErrInvalidPatch, b.ID)
	}
	if len(patch) == 0 {
		return b.Clone(), nil
	}

	current, err := json.Marshal(b.Data)
	if err != nil {
		return b, fmt.Errorf("block: encode %s data: %w", b.Type(), err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(current, &fields); err != nil {
		return b, fmt.Errorf("block: decode %s data: %w", b.Type(), err)
	}
	for k, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return b, fmt.Errorf("%w: field %q: %v", ErrInvalidPatch, k, err)
		}
		fields[k] = raw
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return b, fmt.Errorf("block: encode merged data: %w", err)
	}

	data, err := DecodeData(b.Type(), merged)
	if err != nil {
		return b, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if yt, ok := data.(YouTubeData); ok {
		_, hasURL := patch["url"]
		_, hasID := patch["videoId"]
		if hasURL && !hasID {
			yt.VideoID = ExtractVideoID(yt.URL)
			data = yt
		}
	}
	return Block{ID: b.ID, Data: data}, nil
}

// UpdateStyles shallow-merges styles into the block's styles and returns the
// result as a new Block.
func UpdateStyles(b Block, styles Styles) Block {
	if b.Data == nil {
		return b
	}
	return Block{ID: b.ID, Data: b.Data.clone().withStyles(b.Data.styles().Merge(styles))}
}
