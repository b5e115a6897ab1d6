// Package editor holds the authoritative, ordered block sequence of one
// document together with its focus pointer, and mediates every structural
// change to it.
//
// All mutations run under a single lock, so callers only ever observe the
// fully applied result of the last accepted operation. Lookups by id that
// miss leave the sequence unchanged and report apperr.ErrNotFound; callers
// that want the lenient behaviour simply ignore that status.
package editor

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/starford/blockdoc/internal/apperr"
	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/serializer"
)

// Editor is the state of one open document.
type Editor struct {
	mu       sync.RWMutex
	blocks   []block.Block
	focused  string
	revision uint64
}

// New builds an editor whose initial sequence is Deserialize(raw). Nil or
// malformed input yields one empty paragraph.
func New(raw []byte) *Editor {
	return &Editor{blocks: serializer.Deserialize(raw)}
}

// NewFromBlocks builds an editor over a copy of blocks. An empty slice yields
// one empty paragraph.
func NewFromBlocks(blocks []block.Block) *Editor {
	doc := serializer.Document{Blocks: blocks}
	return &Editor{blocks: serializer.DeserializeDocument(&doc)}
}

// Blocks returns a copy of the current sequence.
func (e *Editor) Blocks() []block.Block {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]block.Block, len(e.blocks))
	for i, b := range e.blocks {
		out[i] = b.Clone()
	}
	return out
}

// Len returns the number of blocks.
func (e *Editor) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.blocks)
}

// Block returns a copy of the block with id.
func (e *Editor) Block(id string) (block.Block, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i := e.indexOf(id)
	if i < 0 {
		return block.Block{}, false
	}
	return e.blocks[i].Clone(), true
}

// Revision counts accepted mutations since construction.
func (e *Editor) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}

// FocusedBlockID returns the focused block id, if any.
func (e *Editor) FocusedBlockID() (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.focused, e.focused != ""
}

// SetFocusedBlockID moves focus to id. The id is not checked against the
// sequence; an empty id clears focus.
func (e *Editor) SetFocusedBlockID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focused = id
}

// ClearFocus drops the focus pointer.
func (e *Editor) ClearFocus() {
	e.SetFocusedBlockID("")
}

// AddBlock inserts b at index, shifting later blocks right. index is clamped
// to [0, Len()]. A block without an id or a valid payload, or whose id is
// already present, is rejected.
func (e *Editor) AddBlock(b block.Block, index int) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("editor: add block: %w: %v", apperr.ErrInvalidArgument, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexOf(b.ID) >= 0 {
		return fmt.Errorf("editor: add block %q: %w", b.ID, apperr.ErrAlreadyExists)
	}
	index = max(0, min(index, len(e.blocks)))
	e.blocks = slices.Insert(slices.Clone(e.blocks), index, b.Clone())
	e.revision++
	return nil
}

// UpdateBlock shallow-merges patch into the data of block id.
func (e *Editor) UpdateBlock(id string, patch block.Patch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("editor: update block %q: %w", id, apperr.ErrNotFound)
	}
	updated, err := block.UpdateData(e.blocks[i], patch)
	if err != nil {
		return fmt.Errorf("editor: update block %q: %w", id, err)
	}
	e.replace(i, updated)
	return nil
}

// UpdateBlockStyle shallow-merges styles into block id.
func (e *Editor) UpdateBlockStyle(id string, styles block.Styles) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("editor: update style %q: %w", id, apperr.ErrNotFound)
	}
	e.replace(i, block.UpdateStyles(e.blocks[i], styles))
	return nil
}

// DeleteBlock removes block id.
func (e *Editor) DeleteBlock(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("editor: delete block %q: %w", id, apperr.ErrNotFound)
	}
	e.blocks = slices.Delete(slices.Clone(e.blocks), i, i+1)
	e.revision++
	return nil
}

// MoveBlock removes the block at from and reinserts it at to in the
// shortened sequence. Both indices must address the current sequence;
// otherwise nothing changes and apperr.ErrOutOfRange is returned.
func (e *Editor) MoveBlock(from, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.blocks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("editor: move %d -> %d in %d blocks: %w", from, to, n, apperr.ErrOutOfRange)
	}
	next := slices.Clone(e.blocks)
	moved := next[from]
	next = slices.Delete(next, from, from+1)
	e.blocks = slices.Insert(next, to, moved)
	e.revision++
	return nil
}

// Clear resets the sequence to one fresh empty paragraph.
func (e *Editor) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blocks = []block.Block{block.NewEmpty()}
	e.revision++
}

// Replace swaps the whole sequence for Deserialize(raw).
func (e *Editor) Replace(raw []byte) {
	e.swap(serializer.Deserialize(raw))
}

// ReplaceBlocks swaps the whole sequence for a copy of blocks, recovering an
// empty slice to one empty paragraph.
func (e *Editor) ReplaceBlocks(blocks []block.Block) {
	doc := serializer.Document{Blocks: blocks}
	e.swap(serializer.DeserializeDocument(&doc))
}

func (e *Editor) swap(blocks []block.Block) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blocks = blocks
	e.revision++
}

// DocumentJSON snapshots the sequence as a serializer.Document stamped with now.
func (e *Editor) DocumentJSON(now time.Time) serializer.Document {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return serializer.Serialize(e.blocks, now)
}

// Export encodes the current sequence as document JSON.
func (e *Editor) Export(now time.Time) ([]byte, error) {
	return serializer.Marshal(e.DocumentJSON(now))
}

func (e *Editor) indexOf(id string) int {
	return slices.IndexFunc(e.blocks, func(b block.Block) bool { return b.ID == id })
}

// replace swaps the block at i on a fresh backing array so that slices
// handed out earlier never change underneath their holders.
func (e *Editor) replace(i int, b block.Block) {
	next := slices.Clone(e.blocks)
	next[i] = b
	e.blocks = next
	e.revision++
}
