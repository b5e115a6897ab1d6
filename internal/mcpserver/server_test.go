package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/blockdoc/internal/assets"
	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/docservice"
	"github.com/starford/blockdoc/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	root, store := testutil.TestRoot(t)
	svc := docservice.NewService(store, testutil.TestDB(t), docservice.Options{
		SanitizeHTML: true,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return New(svc, assets.NewStore(root)), root
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so dispatch to the handlers.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_documents":        srv.listDocuments,
		"read_document":         srv.readDocument,
		"create_document":       srv.createDocument,
		"add_block":             srv.addBlock,
		"search_documents":      srv.searchDocuments,
		"get_document_contract": srv.getDocumentContract,
		"upload_image":          srv.uploadImage,
	}
	h, ok := handlers[name]
	require.True(t, ok, "unknown tool: %s", name)

	result, err := h(ctx, req)
	require.NoError(t, err, "tool %s", name)
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestToolsRegistered(t *testing.T) {
	srv, _ := testServer(t)
	resp := srv.MCPServer().HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"list_documents", "read_document", "create_document", "add_block",
		"search_documents", "get_document_contract", "upload_image"} {
		assert.Contains(t, string(out), `"`+name+`"`)
	}
}

func TestCreateAndReadDocument(t *testing.T) {
	srv, _ := testServer(t)

	doc := string(testutil.DocumentJSON(t, block.NewHeading(block.H2, "Plan")))
	r := callTool(t, srv, "create_document", map[string]any{"name": "plan", "document": doc})
	require.False(t, r.IsError, resultText(r))
	assert.Equal(t, "created: plan (1 blocks)", resultText(r))

	r = callTool(t, srv, "read_document", map[string]any{"name": "plan"})
	require.False(t, r.IsError)
	var got struct {
		Blocks []block.Block `json:"blocks"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &got))
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, "Plan", got.Blocks[0].Data.(block.HeadingData).Text)
}

func TestCreateDocumentErrors(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_document", map[string]any{"name": "dup"})

	r := callTool(t, srv, "create_document", map[string]any{"name": "dup"})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "already exists")

	r = callTool(t, srv, "create_document", map[string]any{"name": "bad", "document": `{"blocks":[{"id":"x"}]}`})
	assert.True(t, r.IsError)

	r = callTool(t, srv, "create_document", map[string]any{})
	assert.True(t, r.IsError)
}

func TestReadDocumentMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_document", map[string]any{"name": "nope"})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "not found")
}

func TestAddBlock(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_document", map[string]any{"name": "todo"})

	r := callTool(t, srv, "add_block", map[string]any{
		"name":  "todo",
		"type":  "list",
		"style": "ordered",
		"items": []any{"one", "two"},
		"index": float64(0),
	})
	require.False(t, r.IsError, resultText(r))

	var b block.Block
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &b))
	list := b.Data.(block.ListData)
	assert.Equal(t, block.ListOrdered, list.Style)
	assert.Equal(t, []string{"one", "two"}, list.Items)

	r = callTool(t, srv, "add_block", map[string]any{"name": "todo", "type": "table"})
	assert.True(t, r.IsError)

	r = callTool(t, srv, "add_block", map[string]any{"name": "ghost", "type": "divider"})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "not found")
}

func TestListAndSearchDocuments(t *testing.T) {
	srv, _ := testServer(t)
	for _, n := range []string{"alpha", "beta"} {
		callTool(t, srv, "create_document", map[string]any{"name": n})
	}
	callTool(t, srv, "add_block", map[string]any{"name": "beta", "type": "paragraph", "text": "photosynthesis notes"})

	r := callTool(t, srv, "list_documents", map[string]any{})
	require.False(t, r.IsError)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &list))
	assert.Equal(t, 2, list.Total)

	r = callTool(t, srv, "search_documents", map[string]any{"query": "photosynthesis"})
	require.False(t, r.IsError)
	assert.Contains(t, resultText(r), `"beta"`)
}

func TestDocumentContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_document_contract", nil)
	assert.Equal(t, DocumentFormatContract, resultText(r))

	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, formatURI, contents[0].(mcp.TextResourceContents).URI)
}

func TestUploadImage(t *testing.T) {
	srv, root := testServer(t)
	callTool(t, srv, "create_document", map[string]any{"name": "gallery"})

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	r := callTool(t, srv, "upload_image", map[string]any{
		"url":      uri,
		"filename": "cat.png",
		"document": "gallery",
		"alt":      "a cat",
	})
	require.False(t, r.IsError, resultText(r))

	var res struct {
		URL   string       `json:"url"`
		Block *block.Block `json:"block"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &res))
	assert.Equal(t, "/attachments/cat.png", res.URL)
	require.NotNil(t, res.Block)
	img := res.Block.Data.(block.ImageData)
	assert.Equal(t, "/attachments/cat.png", img.URL)
	assert.Equal(t, "a cat", img.Alt)

	data, err := os.ReadFile(filepath.Join(root, "attachments", "cat.png"))
	require.NoError(t, err)
	assert.Equal(t, png, data)

	r = callTool(t, srv, "upload_image", map[string]any{"url": uri, "filename": "cat.png"})
	assert.True(t, r.IsError)
}

func TestUploadImageRejectsMismatch(t *testing.T) {
	srv, _ := testServer(t)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image"))
	r := callTool(t, srv, "upload_image", map[string]any{"url": uri})
	assert.True(t, r.IsError)
}
