package mcp

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parker-estes/bankdocs/internal/service"
)

// Server wraps the MCP server with the service facade it exposes.
type Server struct {
	server *mcp.Server
	svc    *service.Service
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(svc *service.Service) *Server {
	impl := &mcp.Implementation{
		Name:    "bankdocs-assistant",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_question",
		Description: "Ask a question about the indexed banking documents. Answers use only document content and include source references and a confidence grade.",
	}, makeAskHandler(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Semantic similarity search over the indexed banking document chunks. Returns content previews with scores and metadata.",
	}, makeSearchHandler(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Get knowledge base statistics: indexed chunk count, collection name, and storage location.",
	}, makeStatsHandler(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the indexed source documents with their chunk counts.",
	}, makeListHandler(svc))

	return &Server{
		server: server,
		svc:    svc,
	}
}

// Run starts the server with stdio transport (blocks until the client
// disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns a Streamable HTTP handler for the server,
// mountable on any mux path (e.g. "/mcp").
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.server
	}, nil)
}
