// Command wikigraph-mcp is an MCP server that answers shortest-path and
// neighbor queries over the most recently crawled article graph, via stdio
// transport.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ebonicra/WikiGraphExplorer/internal/app"
	"github.com/ebonicra/WikiGraphExplorer/internal/graph"
	"github.com/ebonicra/WikiGraphExplorer/internal/pointer"
)

func main() {
	pointerPath := flag.String("pointer", pointer.DefaultPath, "file recording the latest snapshot location")
	flag.Parse()

	s := server.NewMCPServer("wikigraph-mcp", "0.1.0")

	h := &handler{pointerPath: *pointerPath}
	s.AddTool(shortestPathTool(), h.shortestPath)
	s.AddTool(neighborsTool(), h.neighbors)
	s.AddTool(graphInfoTool(), h.graphInfo)

	// stdout carries the protocol.
	log.SetOutput(os.Stderr)
	if err := server.ServeStdio(s); err != nil {
		log.Fatal(err)
	}
}

type handler struct {
	pointerPath string
}

// loadGraph reads the snapshot each call so a fresh crawl is picked up
// without a restart.
func (h *handler) loadGraph(directed bool) (*graph.Graph, *mcp.CallToolResult) {
	g, err := app.LoadGraph(h.pointerPath, directed)
	if errors.Is(err, app.ErrDatabaseNotFound) {
		return nil, mcp.NewToolResultError(app.MsgDatabaseNotFound)
	}
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("load graph: %v", err))
	}
	return g, nil
}

// Tool definitions.

func shortestPathTool() mcp.Tool {
	return mcp.NewTool("wiki_shortest_path",
		mcp.WithDescription(
			"Find the shortest distance between two articles of the crawled link graph. "+
				"Returns the number of link hops, or the full path when show_path is set. "+
				"Titles are exact article titles, e.g. \"Welsh Corgi\".",
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("title of the starting article"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("title of the target article"),
		),
		mcp.WithBoolean("non_directed",
			mcp.Description("follow links in both directions (default false)"),
		),
		mcp.WithBoolean("show_path",
			mcp.Description("return the titles along the path (default false)"),
		),
	)
}

func neighborsTool() mcp.Tool {
	return mcp.NewTool("wiki_neighbors",
		mcp.WithDescription(
			"List the articles adjacent to a title in the crawled link graph. "+
				"In directed mode these are the pages the article links to.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("exact article title"),
		),
		mcp.WithBoolean("non_directed",
			mcp.Description("include articles that link to the title (default false)"),
		),
	)
}

func graphInfoTool() mcp.Tool {
	return mcp.NewTool("wiki_graph_info",
		mcp.WithDescription("Report how many articles and links the crawled graph holds."),
	)
}

// Tool handlers.
// Handler signatures are dictated by mcp-go's ToolHandlerFunc type.

func (h *handler) shortestPath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from is required"), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to is required"), nil
	}

	g, errResult := h.loadGraph(!req.GetBool("non_directed", false))
	if errResult != nil {
		return errResult, nil
	}

	out, err := g.ShortestPath(from, to, req.GetBool("show_path", false))
	if errors.Is(err, graph.ErrTitleNotFound) {
		return mcp.NewToolResultError(app.MsgTitleNotFound), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (h *handler) neighbors(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required"), nil
	}

	g, errResult := h.loadGraph(!req.GetBool("non_directed", false))
	if errResult != nil {
		return errResult, nil
	}
	if !g.HasVertex(title) {
		return mcp.NewToolResultError(app.MsgTitleNotFound), nil
	}

	return mcp.NewToolResultText(formatNeighbors(title, g.Neighbors(title))), nil
}

func (h *handler) graphInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) { //nolint:gocritic // signature required by mcp-go
	g, errResult := h.loadGraph(true)
	if errResult != nil {
		return errResult, nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d articles, %d links", g.VertexCount(), g.EdgeCount())), nil
}

// formatNeighbors renders a neighbor list as plain text for LLM consumption.
func formatNeighbors(title string, neighbors []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s has %d neighbors\n", title, len(neighbors))
	for _, n := range neighbors {
		fmt.Fprintf(&b, "  %s\n", n)
	}
	return b.String()
}
