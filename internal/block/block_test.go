package block

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/user/someone#p/u/1/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://example.com/not-a-video", ""},
		{"https://youtu.be/short", ""},
		{"", ""},
		{"not a url at all", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ExtractVideoID(c.url), "url %q", c.url)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 10000; i++ {
		id := NewID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestFactories_Defaults(t *testing.T) {
	p := NewEmpty()
	assert.Equal(t, TypeParagraph, p.Type())
	assert.Equal(t, "", p.Data.(ParagraphData).Text)
	assert.Equal(t, "16px", p.Styles()["fontSize"])
	assert.Equal(t, "#333333", p.Styles()["color"])

	h := NewHeading(H2, "Title")
	hd := h.Data.(HeadingData)
	assert.Equal(t, H2, hd.Level)
	assert.Equal(t, "Title", hd.Text)
	assert.Equal(t, "24px", hd.Styles["fontSize"])
	assert.Equal(t, "14px", hd.Styles["marginBottom"])
	assert.Equal(t, "h2", hd.HTMLTag())

	l := NewList(ListOrdered)
	ld := l.Data.(ListData)
	assert.Equal(t, []string{""}, ld.Items)
	assert.Equal(t, "40px", ld.Styles["paddingLeft"])
	assert.Equal(t, "ol", ld.HTMLTag())

	img := NewImage("https://example.com/a.png", "alt")
	assert.Equal(t, "16px", img.Styles()["marginTop"])
	_, hasFont := img.Styles()["fontSize"]
	assert.False(t, hasFont)

	yt := NewYouTube("https://youtu.be/dQw4w9WgXcQ")
	assert.Equal(t, "dQw4w9WgXcQ", yt.Data.(YouTubeData).VideoID)

	d := NewDivider()
	assert.Equal(t, "24px", d.Styles()["marginTop"])
	assert.Equal(t, "hr", d.Data.HTMLTag())
}

func TestFactories_DoNotShareDefaultTables(t *testing.T) {
	a := NewParagraph("a")
	a.Data.(ParagraphData).Styles["color"] = "#FF0000"
	b := NewParagraph("b")
	assert.Equal(t, "#333333", b.Styles()["color"])
	assert.Equal(t, "#333333", DefaultStyles(TypeParagraph)["color"])
}

func TestNewOfType(t *testing.T) {
	for _, typ := range Types {
		b, err := NewOfType(typ)
		require.NoError(t, err)
		assert.Equal(t, typ, b.Type())
		assert.NoError(t, b.Validate())
	}
	_, err := NewOfType("table")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestUpdateStyles_Merges(t *testing.T) {
	orig := NewParagraph("x")
	b1 := UpdateStyles(orig, Styles{"borderWidth": "1px"})
	b2 := UpdateStyles(b1, Styles{"borderColor": "#000000", "fontSize": "20px"})

	s := b2.Styles()
	assert.Equal(t, "1px", s["borderWidth"])
	assert.Equal(t, "#000000", s["borderColor"])
	assert.Equal(t, "20px", s["fontSize"])
	assert.Equal(t, "12px", s["marginBottom"])
	assert.Equal(t, orig.ID, b2.ID)

	// Original untouched.
	_, ok := orig.Styles()["borderWidth"]
	assert.False(t, ok)
	assert.Equal(t, "16px", orig.Styles()["fontSize"])
}

func TestUpdateData_ShallowMerge(t *testing.T) {
	orig := NewHeading(H1, "Old")
	updated, err := UpdateData(orig, Patch{"text": "New", "level": 2, "bogus": true})
	require.NoError(t, err)

	hd := updated.Data.(HeadingData)
	assert.Equal(t, "New", hd.Text)
	assert.Equal(t, H2, hd.Level)
	assert.Equal(t, "32px", hd.Styles["fontSize"], "styles persist when not patched")
	assert.Equal(t, orig.ID, updated.ID)
	assert.Equal(t, TypeHeading, updated.Type())

	assert.Equal(t, "Old", orig.Data.(HeadingData).Text)
}

func TestUpdateData_ListItems(t *testing.T) {
	orig := NewList(ListUnordered, "a")
	updated, err := UpdateData(orig, Patch{"items": []string{"a", "<b>b</b>"}, "style": "ordered"})
	require.NoError(t, err)
	ld := updated.Data.(ListData)
	assert.Equal(t, []string{"a", "<b>b</b>"}, ld.Items)
	assert.Equal(t, ListOrdered, ld.Style)
	assert.Equal(t, []string{"a"}, orig.Data.(ListData).Items)
}

func TestUpdateData_RederivesVideoID(t *testing.T) {
	orig := NewYouTube("")
	updated, err := UpdateData(orig, Patch{"url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", updated.Data.(YouTubeData).VideoID)

	explicit, err := UpdateData(orig, Patch{"url": "https://example.com/x", "videoId": "manual"})
	require.NoError(t, err)
	assert.Equal(t, "manual", explicit.Data.(YouTubeData).VideoID)
}

func TestUpdateData_InvalidPatch(t *testing.T) {
	orig := NewHeading(H1, "t")
	_, err := UpdateData(orig, Patch{"level": "big"})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	_, err = UpdateData(Block{ID: "x"}, Patch{"text": "a"})
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewHeading(H3, "").Validate())
	assert.Error(t, NewHeading(Level(7), "").Validate())
	assert.Error(t, NewList(ListStyle("dotted")).Validate())
	assert.Error(t, Block{ID: "", Data: ParagraphData{}}.Validate())
	assert.Error(t, Block{ID: "x"}.Validate())
}

func TestBlockJSON(t *testing.T) {
	b := NewHeading(H1, "Title")
	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, b.ID, wire["id"])
	assert.Equal(t, "heading", wire["type"])
	data := wire["data"].(map[string]any)
	assert.Equal(t, float64(1), data["level"])
	assert.Equal(t, "h1", data["htmlTag"])

	var back Block
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, b, back)
}

func TestBlockJSON_UnknownType(t *testing.T) {
	var b Block
	err := json.Unmarshal([]byte(`{"id":"a","type":"table","data":{}}`), &b)
	assert.ErrorIs(t, err, ErrUnknownType)
}
