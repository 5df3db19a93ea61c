// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the link graph tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wikigraph/internal/linkservice"
)

// LinkGrammarURI is the resource URI of LinkGrammar.
const LinkGrammarURI = "wikigraph://link-grammar"

// Server wraps the MCP server with the link graph tools.
type Server struct {
	mcp *server.MCPServer
	svc *linkservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *linkservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Wikigraph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	vaultOpt := mcp.WithString("vault",
		mcp.Description("Absolute path of the vault directory. May be omitted when exactly one vault is configured."))

	s.mcp.AddTool(mcp.NewTool("parse_links",
		mcp.WithDescription("Extract every [[wikilink]] from Markdown text with its target, heading, display text and byte span."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw note text")),
	), s.parseLinks)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Resolve a wikilink target to the absolute path of a note file."),
		vaultOpt,
		mcp.WithString("target", mcp.Required(), mcp.Description("Link target, e.g. Note or folder/Note")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note, grouped by source note."),
		vaultOpt,
		mcp.WithString("note", mcp.Required(), mcp.Description("Bare note name without folder or extension")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_file_tree",
		mcp.WithDescription("Return the folder and note hierarchy of the vault."),
		vaultOpt,
	), s.getFileTree)

	s.mcp.AddTool(mcp.NewTool("get_outgoing_links",
		mcp.WithDescription("Group the wikilinks of a text by target and resolve each against the vault."),
		vaultOpt,
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw note text")),
	), s.getOutgoingLinks)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List every note in the vault, most recently modified first."),
		vaultOpt,
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its title, tags, outgoing links and backlinks."),
		vaultOpt,
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("get_link_grammar",
		mcp.WithDescription("Returns the wikilink grammar and resolution rules."),
	), s.getLinkGrammar)

	// Resource: link grammar.
	s.mcp.AddResource(
		mcp.NewResource(LinkGrammarURI, "Link Grammar",
			mcp.WithResourceDescription("Wikilink syntax, resolution order and backlink rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkGrammarResource,
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

// vault returns the vault argument, defaulting to the only configured root.
func (s *Server) vault(req mcp.CallToolRequest) string {
	v := ""
	if f, err := req.RequireString("vault"); err == nil {
		v = f
	}
	return s.svc.VaultOrDefault(v)
}

func (s *Server) parseLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.ParseLinks(ctx, content), nil)
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Resolve(ctx, s.vault(req), target))
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	groups, err := s.svc.Backlinks(ctx, s.vault(req), note)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(groups) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return jsonResult(groups, nil)
}

func (s *Server) getFileTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Tree(ctx, s.vault(req)))
}

func (s *Server) getOutgoingLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Outgoing(ctx, s.vault(req), content))
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.List(ctx, s.vault(req)))
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Inspect(ctx, s.vault(req), path))
}

func (s *Server) getLinkGrammar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LinkGrammar), nil
}

func (s *Server) readLinkGrammarResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LinkGrammarURI,
			MIMEType: "text/markdown",
			Text:     LinkGrammar,
		},
	}, nil
}

// jsonResult renders v as indented JSON, or err as a tool error.
func jsonResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
