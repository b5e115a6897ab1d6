// Package serializer converts block sequences to and from the portable
// document JSON format:
//
//	{"version": "1.0.0", "time": <ms since epoch>, "blocks": [{"id", "type", "data"}, ...]}
//
// Import favours availability over strictness: Deserialize never fails and
// always yields an editable, non-empty sequence. ValidateJSON is the separate
// strict pre-check.
package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/blockdoc/internal/block"
)

// Version is written into every exported document.
const Version = "1.0.0"

// Document is the persisted form of a block sequence.
type Document struct {
	Version string        `json:"version"`
	Time    int64         `json:"time"`
	Blocks  []block.Block `json:"blocks"`
}

// Serialize wraps blocks, in order, into a Document stamped with now.
func Serialize(blocks []block.Block, now time.Time) Document {
	out := make([]block.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	return Document{Version: Version, Time: now.UnixMilli(), Blocks: out}
}

// Marshal encodes doc as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializer: marshal: %w", err)
	}
	return data, nil
}

// Export serializes and encodes blocks in one step.
func Export(blocks []block.Block, now time.Time) ([]byte, error) {
	return Marshal(Serialize(blocks, now))
}

// Deserialize decodes raw into a block sequence.
//
// Empty input, null, anything that is not an object with a "blocks" array,
// and an empty "blocks" array all recover to a single default paragraph.
// Entries whose type is outside the known variants, or whose data does not
// fit the variant, are skipped; if none survive the default paragraph is
// returned. Ids, types and data are otherwise preserved as given.
func Deserialize(raw []byte) []block.Block {
	entries, ok := blockEntries(raw)
	if !ok || len(entries) == 0 {
		return defaultBlocks()
	}
	out := make([]block.Block, 0, len(entries))
	for _, e := range entries {
		var b block.Block
		if err := json.Unmarshal(e, &b); err != nil {
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return defaultBlocks()
	}
	return out
}

// DeserializeDocument is Deserialize for an already decoded document. A nil
// document recovers like absent input.
func DeserializeDocument(doc *Document) []block.Block {
	if doc == nil || len(doc.Blocks) == 0 {
		return defaultBlocks()
	}
	out := make([]block.Block, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if b.Data == nil {
			continue
		}
		out = append(out, b.Clone())
	}
	if len(out) == 0 {
		return defaultBlocks()
	}
	return out
}

func defaultBlocks() []block.Block {
	return []block.Block{block.NewEmpty()}
}

// blockEntries extracts the raw elements of the top-level "blocks" array.
func blockEntries(raw []byte) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, false
	}
	blocksRaw, ok := top["blocks"]
	if !ok {
		return nil, false
	}
	var entries []json.RawMessage
	if trimmed := bytes.TrimSpace(blocksRaw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	if err := json.Unmarshal(blocksRaw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}
