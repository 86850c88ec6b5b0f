// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes doclife tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/doclife/internal/docservice"
)

// FormatURI is the resource URI of the document format contract.
const FormatURI = "doclife://document-format"

// Server wraps the MCP server with doclife tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all doclife tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"doclife",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	rangeArg := mcp.WithString("range",
		mcp.Description("Revision range such as main..HEAD, main...HEAD or a single revision. Empty uses the configured default."))

	s.mcp.AddTool(mcp.NewTool("scan_documents",
		mcp.WithDescription("Evaluate every managed document: detected state, checklist completion, and pending transition."),
		rangeArg,
	), s.scanDocuments)

	s.mcp.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Aggregated lifecycle report with per-state counts and every document."),
		rangeArg,
	), s.getReport)

	s.mcp.AddTool(mcp.NewTool("get_completion",
		mcp.WithDescription("Checklist completion of one document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path relative to the project root")),
	), s.getCompletion)

	s.mcp.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Detected lifecycle state of one document and where it came from."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path relative to the project root")),
	), s.getStatus)

	s.mcp.AddTool(mcp.NewTool("plan_transitions",
		mcp.WithDescription("List the transitions apply_transitions would perform, without changing any file."),
		rangeArg,
	), s.planTransitions)

	s.mcp.AddTool(mcp.NewTool("apply_transitions",
		mcp.WithDescription("Rewrite status headers and move documents into their lifecycle folders. "+
			"Call plan_transitions first to review the changes."),
		rangeArg,
		mcp.WithBoolean("dry_run", mcp.Description("Report without changing files")),
	), s.applyTransitions)

	s.mcp.AddTool(mcp.NewTool("ensure_folders",
		mcp.WithDescription("Create the approved, in-progress, implemented and staged folders under a directory."),
		mcp.WithString("dir", mcp.Required(), mcp.Description("Base directory relative to the project root")),
	), s.ensureFolders)

	s.mcp.AddTool(mcp.NewTool("get_document_format",
		mcp.WithDescription("Returns the status header and checklist format doclife understands. "+
			"Read it before editing document headers by hand."),
	), s.getDocumentFormat)

	s.mcp.AddResource(
		mcp.NewResource(FormatURI, "Document Format",
			mcp.WithResourceDescription("Status header, checklist and folder conventions for lifecycle documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) scanDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Scan(ctx, req.GetString("range", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rep, err := s.svc.Report(ctx, req.GetString("range", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) getCompletion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Completion(ctx, path))
}

func (s *Server) getStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Status(ctx, path))
}

func (s *Server) planTransitions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Plan(ctx, req.GetString("range", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) applyTransitions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Apply(ctx, req.GetString("range", ""), req.GetBool("dry_run", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) ensureFolders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := req.RequireString("dir")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.EnsureFolders(ctx, dir))
}

func (s *Server) getDocumentFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
