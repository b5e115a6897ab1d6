// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes blockdoc tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/blockdoc/internal/apperr"
	"github.com/starford/blockdoc/internal/assets"
	"github.com/starford/blockdoc/internal/block"
	"github.com/starford/blockdoc/internal/docservice"
)

const formatURI = "blockdoc://document-format"

// Server wraps the MCP server with blockdoc tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *docservice.Service
	files *assets.Store
}

// New creates a new MCP server with all blockdoc tools registered.
func New(svc *docservice.Service, files *assets.Store) *Server {
	s := &Server{svc: svc, files: files}

	s.mcp = server.NewMCPServer(
		"blockdoc",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List stored block documents, most recently updated first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of documents (default 50)")),
		mcp.WithNumber("offset", mcp.Description("Number of documents to skip")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read a block document as portable JSON."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name without extension (e.g. team/standup)")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new block document. The optional document MUST follow "+
			"the blockdoc format; read it first via get_document_contract or the "+
			formatURI+" resource. Omit document to start with one empty paragraph."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name for the new document")),
		mcp.WithString("document", mcp.Description("Document JSON following the blockdoc format contract")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Insert one block into an existing document."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Document name")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Block type"),
			mcp.Enum("paragraph", "heading", "list", "image", "youtube", "divider")),
		mcp.WithString("text", mcp.Description("Rich text for paragraph and heading blocks")),
		mcp.WithNumber("level", mcp.Description("Heading level 1-3 (default 1)")),
		mcp.WithString("style", mcp.Description("List style"), mcp.Enum("unordered", "ordered")),
		mcp.WithArray("items", mcp.Description("List items"), mcp.WithStringItems()),
		mcp.WithString("url", mcp.Description("Image or YouTube URL")),
		mcp.WithString("alt", mcp.Description("Image alt text")),
		mcp.WithNumber("index", mcp.Description("Insert position; omitted appends")),
	), s.addBlock)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles and block text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the blockdoc document format contract. "+
			"Call this before creating documents to ensure correct structure."),
	), s.getDocumentContract)

	s.mcp.AddTool(mcp.NewTool("upload_image",
		mcp.WithDescription("Download an image from an http(s) URL or base64 data URI into "+
			"the attachments directory. With document set, an image block pointing at it is appended."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Target filename; derived from the URL when empty")),
		mcp.WithString("document", mcp.Description("Document to append an image block to")),
		mcp.WithString("alt", mcp.Description("Alt text for the image block")),
	), s.uploadImage)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Document Format Contract",
			mcp.WithResourceDescription("Portable JSON format every blockdoc document follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.List(ctx, req.GetInt("limit", 50), req.GetInt("offset", 0), "")
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(map[string]any{"documents": items, "total": total})
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, _, err := s.svc.Export(ctx, name)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var raw []byte
	if doc := req.GetString("document", ""); doc != "" {
		raw = []byte(doc)
	}
	detail, err := s.svc.Create(ctx, name, raw)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d blocks)", detail.Name, len(detail.Document.Blocks))), nil
}

func (s *Server) addBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	spec := docservice.BlockSpec{
		Type:  block.Type(typ),
		Text:  req.GetString("text", ""),
		Level: block.Level(req.GetInt("level", 0)),
		Style: block.ListStyle(req.GetString("style", "")),
		Items: req.GetStringSlice("items", nil),
		URL:   req.GetString("url", ""),
		Alt:   req.GetString("alt", ""),
	}
	var at *int
	if args := req.GetArguments(); args["index"] != nil {
		i := req.GetInt("index", 0)
		at = &i
	}
	b, err := s.svc.AddBlock(ctx, name, spec, at)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(b)
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results)
}

func (s *Server) getDocumentContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}

type uploadResult struct {
	assets.Asset
	Block *block.Block `json:"block,omitempty"`
}

func (s *Server) uploadImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, guessed, err := assets.Fetch(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", guessed)
	asset, err := s.files.Save(filename, data)
	if err != nil {
		return toolError(err), nil
	}

	out := uploadResult{Asset: *asset}
	if doc := req.GetString("document", ""); doc != "" {
		spec := docservice.BlockSpec{Type: block.TypeImage, URL: asset.URL, Alt: req.GetString("alt", "")}
		b, err := s.svc.AddBlock(ctx, doc, spec, nil)
		if err != nil {
			return toolError(err), nil
		}
		out.Block = &b
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

// toolError turns a service error into a tool-level error result so the
// model sees the reason instead of a protocol failure.
func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError("already exists: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}
