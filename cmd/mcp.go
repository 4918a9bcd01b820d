package cmd

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing document search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	s, err := openSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	return mcpserver.ServeStdio(newMCPServer(s))
}

func newMCPServer(s *session) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer("docqa", "1.0.0", mcpserver.WithToolCapabilities(false))

	srv.AddTool(searchDocumentTool(), makeSearchHandler(s))
	srv.AddTool(answerQuestionTool(), makeAnswerHandler(s))
	srv.AddTool(listIndexedDocumentsTool(), makeListDocumentsHandler(s.store))
	srv.AddTool(getDocumentOverviewTool(), makeOverviewHandler(s.overview))
	return srv
}

func init() {
	addRetrievalFlags(mcpCmd)
	rootCmd.AddCommand(mcpCmd)
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchDocumentTool() mcp.Tool {
	return mcp.NewTool("search_document",
		mcp.WithDescription("Semantically search the indexed documents. Returns relevant passages with document path, page number and similarity score."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query to search the documents"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of passages to return (default 5)"),
		),
	)
}

func answerQuestionTool() mcp.Tool {
	return mcp.NewTool("answer_question",
		mcp.WithDescription("Answer a question from the indexed documents with the configured chat model. Returns the answer followed by the passages it is based on."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{
			ReadOnlyHint:    mcp.ToBoolPtr(true),
			DestructiveHint: mcp.ToBoolPtr(false),
			IdempotentHint:  mcp.ToBoolPtr(false),
			OpenWorldHint:   mcp.ToBoolPtr(false),
		}),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	)
}

func listIndexedDocumentsTool() mcp.Tool {
	return mcp.NewTool("list_indexed_documents",
		mcp.WithDescription("List all documents in the index with their page count, chunk count and summary snippet."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func getDocumentOverviewTool() mcp.Tool {
	return mcp.NewTool("get_document_overview",
		mcp.WithDescription("Get the overview of the document collection generated during indexing."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(s *session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", 0)

		results, err := s.pipeline.Search(ctx, query, k)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(formatSearchResults(query, results)), nil
	}
}

func makeAnswerHandler(s *session) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := req.GetString("question", "")
		if question == "" {
			return mcp.NewToolResultError("question is required"), nil
		}

		answer, err := s.pipeline.Ask(ctx, question)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("answer failed: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(strings.TrimSpace(answer.Text))
		if len(answer.Chunks) > 0 {
			sb.WriteString("\n\n## Sources\n\n")
			sb.WriteString(formatSources(answer.Chunks, len(answer.Chunks)))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeOverviewHandler(overview string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if strings.TrimSpace(overview) == "" {
			return mcp.NewToolResultText("No overview available yet. Run 'docqa index --overview <path>' to generate one."), nil
		}
		return mcp.NewToolResultText(overview), nil
	}
}

func makeListDocumentsHandler(st *store.SQLiteStore) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs, err := st.Sources(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list documents failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Indexed documents (%d)\n\n", len(docs))

		for _, d := range docs {
			snippet := d.Summary
			if idx := strings.Index(snippet, "\n"); idx >= 0 {
				snippet = snippet[:idx]
			}
			snippet = preview(snippet, 120)
			if snippet == "" {
				snippet = "(no summary)"
			}
			fmt.Fprintf(&sb, "- **%s** (%d pages, %d chunks): %s\n", d.Path, d.Pages, d.Chunks, snippet)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
