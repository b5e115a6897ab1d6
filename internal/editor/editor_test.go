package editor

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/blockdoc/internal/apperr"
	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/serializer"
)

func ids(blocks []block.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ID
	}
	return out
}

func threeBlocks(t *testing.T) (*Editor, []string) {
	t.Helper()
	e := NewFromBlocks([]block.Block{
		block.NewParagraph("a"),
		block.NewParagraph("b"),
		block.NewParagraph("c"),
	})
	return e, ids(e.Blocks())
}

func TestNew_NilInput(t *testing.T) {
	e := New(nil)
	blocks := e.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, block.TypeParagraph, blocks[0].Type())
	assert.Equal(t, "", blocks[0].Data.(block.ParagraphData).Text)
	_, focused := e.FocusedBlockID()
	assert.False(t, focused)
}

func TestAddBlock_Positions(t *testing.T) {
	e, before := threeBlocks(t)

	head := block.NewDivider()
	require.NoError(t, e.AddBlock(head, 0))
	tail := block.NewDivider()
	require.NoError(t, e.AddBlock(tail, e.Len()))
	mid := block.NewDivider()
	require.NoError(t, e.AddBlock(mid, 2))

	want := []string{head.ID, before[0], mid.ID, before[1], before[2], tail.ID}
	assert.Equal(t, want, ids(e.Blocks()))
}

func TestAddBlock_ClampsIndex(t *testing.T) {
	e, before := threeBlocks(t)
	low := block.NewDivider()
	high := block.NewDivider()
	require.NoError(t, e.AddBlock(low, -5))
	require.NoError(t, e.AddBlock(high, 99))
	assert.Equal(t, append(append([]string{low.ID}, before...), high.ID), ids(e.Blocks()))
}

func TestAddBlock_IDsStayUnique(t *testing.T) {
	e := New(nil)
	for i := 0; i < 200; i++ {
		require.NoError(t, e.AddBlock(block.NewParagraph("x"), i%3))
	}
	seen := map[string]bool{}
	for _, id := range ids(e.Blocks()) {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}

	dup := e.Blocks()[0]
	err := e.AddBlock(dup, 0)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
	assert.Equal(t, 201, e.Len())
}

func TestAddBlock_RejectsMalformed(t *testing.T) {
	e := New(nil)
	for i := 0; i < 4; i++ {
		require.NoError(t, e.AddBlock(block.NewParagraph("p"), i))
	}
	rev := e.Revision()

	cases := map[string]block.Block{
		"zero value": {},
		"no data":    {ID: "orphan"},
		"no id":      {Data: block.ParagraphData{Text: "x"}},
		"bad level":  {ID: "h", Data: block.HeadingData{Level: 7}},
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			err := e.AddBlock(b, 0)
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		})
	}
	assert.Equal(t, 5, e.Len())
	assert.Equal(t, rev, e.Revision())

	raw, err := e.Export(time.UnixMilli(1700000000000))
	require.NoError(t, err)
	assert.Len(t, serializer.Deserialize(raw), e.Len(), "export and reload keep every block")
}

func TestUpdateBlock(t *testing.T) {
	e, before := threeBlocks(t)
	require.NoError(t, e.UpdateBlock(before[1], block.Patch{"text": "B!"}))
	got, ok := e.Block(before[1])
	require.True(t, ok)
	assert.Equal(t, "B!", got.Data.(block.ParagraphData).Text)
	assert.Equal(t, before, ids(e.Blocks()))
}

func TestUpdateBlock_MissingIsNoop(t *testing.T) {
	e, before := threeBlocks(t)
	snapshot := e.Blocks()
	rev := e.Revision()

	assert.ErrorIs(t, e.UpdateBlock("nonexistent-id", block.Patch{"text": "x"}), apperr.ErrNotFound)
	assert.ErrorIs(t, e.UpdateBlockStyle("nonexistent-id", block.Styles{"color": "#000000"}), apperr.ErrNotFound)
	assert.ErrorIs(t, e.DeleteBlock("nonexistent-id"), apperr.ErrNotFound)

	assert.Equal(t, snapshot, e.Blocks())
	assert.Equal(t, before, ids(e.Blocks()))
	assert.Equal(t, rev, e.Revision())
}

func TestUpdateBlock_InvalidPatchLeavesBlock(t *testing.T) {
	e := NewFromBlocks([]block.Block{block.NewHeading(block.H1, "t")})
	id := e.Blocks()[0].ID
	err := e.UpdateBlock(id, block.Patch{"level": "huge"})
	assert.ErrorIs(t, err, block.ErrInvalidPatch)
	got, _ := e.Block(id)
	assert.Equal(t, block.H1, got.Data.(block.HeadingData).Level)
}

func TestUpdateBlockStyle_Merges(t *testing.T) {
	e, before := threeBlocks(t)
	require.NoError(t, e.UpdateBlockStyle(before[0], block.Styles{"a": "1px"}))
	require.NoError(t, e.UpdateBlockStyle(before[0], block.Styles{"b": "2px"}))
	got, _ := e.Block(before[0])
	s := got.Styles()
	assert.Equal(t, "1px", s["a"])
	assert.Equal(t, "2px", s["b"])
	assert.Equal(t, "16px", s["fontSize"])
}

func TestDeleteBlock(t *testing.T) {
	e, before := threeBlocks(t)
	require.NoError(t, e.DeleteBlock(before[1]))
	assert.Equal(t, []string{before[0], before[2]}, ids(e.Blocks()))
}

func TestMoveBlock(t *testing.T) {
	cases := []struct {
		from, to int
		want     []int
	}{
		{0, 2, []int{1, 2, 0}},
		{2, 0, []int{2, 0, 1}},
		{1, 1, []int{0, 1, 2}},
		{0, 1, []int{1, 0, 2}},
	}
	for _, c := range cases {
		e, before := threeBlocks(t)
		require.NoError(t, e.MoveBlock(c.from, c.to))
		got := ids(e.Blocks())
		want := make([]string, len(c.want))
		for i, idx := range c.want {
			want[i] = before[idx]
		}
		assert.Equal(t, want, got, "move %d -> %d", c.from, c.to)
		assert.Equal(t, before[c.from], got[c.to])
	}
}

func TestMoveBlock_OutOfRange(t *testing.T) {
	e, before := threeBlocks(t)
	for _, c := range [][2]int{{-1, 0}, {0, 3}, {3, 0}, {0, -1}} {
		assert.ErrorIs(t, e.MoveBlock(c[0], c[1]), apperr.ErrOutOfRange)
	}
	assert.Equal(t, before, ids(e.Blocks()))
}

func TestFocus(t *testing.T) {
	e, before := threeBlocks(t)
	e.SetFocusedBlockID(before[2])
	id, ok := e.FocusedBlockID()
	assert.True(t, ok)
	assert.Equal(t, before[2], id)

	e.SetFocusedBlockID("not-rendered-yet")
	id, _ = e.FocusedBlockID()
	assert.Equal(t, "not-rendered-yet", id)

	e.ClearFocus()
	_, ok = e.FocusedBlockID()
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	e, before := threeBlocks(t)
	e.Clear()
	blocks := e.Blocks()
	require.Len(t, blocks, 1)
	assert.NotContains(t, before, blocks[0].ID)
	assert.Equal(t, block.TypeParagraph, blocks[0].Type())
}

func TestBlocks_ReturnsCopies(t *testing.T) {
	e, before := threeBlocks(t)
	out := e.Blocks()
	out[0] = block.NewDivider()
	out[1].Data.(block.ParagraphData).Styles["color"] = "#FF0000"

	fresh := e.Blocks()
	assert.Equal(t, before, ids(fresh))
	assert.Equal(t, "#333333", fresh[1].Styles()["color"])
}

func TestScenario_HeadingExport(t *testing.T) {
	e := New(nil)
	require.NoError(t, e.AddBlock(block.NewHeading(block.H1, "Title"), 0))
	require.Equal(t, 2, e.Len())

	raw, err := e.Export(time.Now())
	require.NoError(t, err)
	var wire struct {
		Version string `json:"version"`
		Blocks  []struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		} `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, "1.0.0", wire.Version)
	require.Len(t, wire.Blocks, 2)
	assert.Equal(t, "heading", wire.Blocks[0].Type)
	assert.Equal(t, float64(1), wire.Blocks[0].Data["level"])
	assert.Equal(t, "Title", wire.Blocks[0].Data["text"])
	assert.Equal(t, "paragraph", wire.Blocks[1].Type)
}

func TestReplace(t *testing.T) {
	e, _ := threeBlocks(t)
	e.Replace([]byte(`{"blocks":[{"id":"x","type":"divider","data":{}}]}`))
	assert.Equal(t, []string{"x"}, ids(e.Blocks()))
	e.Replace(nil)
	assert.Equal(t, 1, e.Len())
}

func TestReplaceBlocks(t *testing.T) {
	e, _ := threeBlocks(t)
	rev := e.Revision()

	d := block.NewDivider()
	in := []block.Block{d}
	e.ReplaceBlocks(in)
	assert.Equal(t, []string{d.ID}, ids(e.Blocks()))
	assert.Greater(t, e.Revision(), rev)

	in[0] = block.NewParagraph("later")
	assert.Equal(t, []string{d.ID}, ids(e.Blocks()), "caller slice must not alias editor state")

	e.ReplaceBlocks(nil)
	require.Equal(t, 1, e.Len())
	assert.Equal(t, block.TypeParagraph, e.Blocks()[0].Type())
}

func TestConcurrentMutations(t *testing.T) {
	e := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := block.NewParagraph("p")
			_ = e.AddBlock(b, 0)
			_ = e.UpdateBlockStyle(b.ID, block.Styles{"color": "#000000"})
			_ = e.Blocks()
		}()
	}
	wg.Wait()
	assert.Equal(t, 51, e.Len())
	assert.Equal(t, uint64(100), e.Revision())
}
