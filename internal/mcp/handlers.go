package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parker-estes/bankdocs/internal/service"
)

const defaultSearchLimit = 5

// makeAskHandler creates the ask_question tool handler. The service
// envelope already distinguishes a grounded answer from a refusal for
// lack of evidence; both are successful tool calls. Only processing
// failures surface as tool errors.
func makeAskHandler(svc *service.Service) func(
	context.Context, *mcp.CallToolRequest, AskQuestionInput,
) (*mcp.CallToolResult, AskQuestionOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskQuestionInput) (
		*mcp.CallToolResult, AskQuestionOutput, error,
	) {
		resp := svc.Ask(ctx, input.Question)
		if !resp.Success {
			return nil, AskQuestionOutput{}, errors.New(resp.Error)
		}

		return nil, AskQuestionOutput{
			Answer:     resp.Answer,
			Outcome:    string(resp.Outcome),
			Confidence: string(resp.Confidence),
			Sources:    resp.Sources,
		}, nil
	}
}

// makeSearchHandler creates the search_documents tool handler.
func makeSearchHandler(svc *service.Service) func(
	context.Context, *mcp.CallToolRequest, SearchDocumentsInput,
) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentsInput) (
		*mcp.CallToolResult, SearchDocumentsOutput, error,
	) {
		limit := input.Limit
		if limit <= 0 {
			limit = defaultSearchLimit
		}

		resp := svc.Search(ctx, input.Query, limit)
		if !resp.Success {
			return nil, SearchDocumentsOutput{}, errors.New(resp.Error)
		}

		out := SearchDocumentsOutput{
			Results: resp.Results,
			Count:   resp.Count,
		}
		if out.Count == 0 {
			out.Message = "No matching documents found. Try broader search terms."
		}
		return nil, out, nil
	}
}

// makeStatsHandler creates the get_stats tool handler.
func makeStatsHandler(svc *service.Service) func(
	context.Context, *mcp.CallToolRequest, GetStatsInput,
) (*mcp.CallToolResult, GetStatsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetStatsInput) (
		*mcp.CallToolResult, GetStatsOutput, error,
	) {
		resp := svc.Stats(ctx)
		if !resp.Success {
			return nil, GetStatsOutput{}, errors.New(resp.Error)
		}

		return nil, GetStatsOutput{
			EntryCount:      resp.EntryCount,
			CollectionName:  resp.CollectionName,
			StorageLocation: resp.StorageLocation,
			HistoryLength:   resp.HistoryLength,
		}, nil
	}
}

// makeListHandler creates the list_documents tool handler.
func makeListHandler(svc *service.Service) func(
	context.Context, *mcp.CallToolRequest, ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListDocumentsInput) (
		*mcp.CallToolResult, ListDocumentsOutput, error,
	) {
		resp := svc.ListDocuments(ctx)
		if !resp.Success {
			return nil, ListDocumentsOutput{}, errors.New(resp.Error)
		}

		return nil, ListDocumentsOutput{
			Documents:      resp.Documents,
			TotalDocuments: resp.TotalDocuments,
			TotalChunks:    resp.TotalChunks,
		}, nil
	}
}
