package mcpserver

// DocumentFormatContract describes the portable block document format that
// LLM consumers should follow when creating documents.
const DocumentFormatContract = `# blockdoc Document Format Contract

Every document stored by blockdoc is one JSON object with this structure.

## Structure

` + "```" + `json
{
  "version": "1.0.0",
  "time": 1700000000000,
  "blocks": [
    {"id": "b1", "type": "heading", "data": {"text": "Title", "level": 1, "styles": {}}},
    {"id": "b2", "type": "paragraph", "data": {"text": "Hello <b>world</b>", "styles": {}}}
  ]
}
` + "```" + `

## Block types

| type        | data fields                                         |
|-------------|-----------------------------------------------------|
| paragraph   | text (HTML fragment), styles                        |
| heading     | text (HTML fragment), level (1-3), styles           |
| list        | style ("unordered" or "ordered"), items ([]string), styles |
| image       | url, alt, styles                                    |
| youtube     | url, videoId, styles                                |
| divider     | styles                                              |

## Rules

1. **Every block needs a non-empty ` + "`" + `id` + "`" + `, ` + "`" + `type` + "`" + ` and ` + "`" + `data` + "`" + `.** Documents
   missing any of them are rejected on create.
2. **Ids are unique** within a document. Clients may pick any string.
3. **Unknown types are dropped** on load; do not invent new ones.
4. **Text is an HTML fragment.** Inline formatting (b, i, u, a, span with
   color or font-size style) is kept; scripts and event handlers are removed.
5. **styles** maps CSS property names in camelCase (marginTop, fontSize,
   color) to string values. Omitted keys fall back to the type defaults.
6. **htmlTag** may appear in exported data; it is derived and ignored on input.
7. **time** is milliseconds since the Unix epoch and is rewritten on every save.
8. **Names** are slash-separated, without extension (` + "`" + `team/standup` + "`" + `). Segments
   must not start with a dot.

## Images

- Upload images with the ` + "`" + `upload_image` + "`" + ` tool. It stores the file in the shared
  ` + "`" + `attachments/` + "`" + ` directory and returns its URL.
- Reference uploads by absolute URL: ` + "`" + `/attachments/filename.png` + "`" + `.
- Supported formats: png, jpg, jpeg, gif, webp, svg.
`
