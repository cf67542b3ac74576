// Package mcp serves the activity report over the Model Context Protocol so
// assistants can pull recent git activity directly.
package mcp

import (
	"context"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/gitdigest/internal/digest"
	"github.com/rohankatakam/gitdigest/internal/report"
	"github.com/rohankatakam/gitdigest/internal/window"
)

// ToolActivityReport is the name of the report tool
const ToolActivityReport = "activity_report"

// Collector builds raw activity reports. *digest.Digest implements it.
type Collector interface {
	Collect(ctx context.Context, q digest.Query) (report.Report, window.Window, int, error)
}

// Server exposes the activity report as an MCP tool
type Server struct {
	server    *gomcp.Server
	collector Collector
	logger    *logrus.Entry
}

// NewServer creates a server backed by collector
func NewServer(collector Collector, version string, logger *logrus.Entry) *Server {
	if version == "" {
		version = "dev"
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Server{collector: collector, logger: logger}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "gitdigest", Version: version}, nil)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name: ToolActivityReport,
		Description: "Report recent git activity (commits and uncommitted changes with line ranges) " +
			"across the configured repositories. Returns the raw, unsummarized report.",
	}, s.handleActivityReport)

	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying server for custom transports
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

type activityReportInput struct {
	Days   int    `json:"days,omitempty" jsonschema:"number of days to cover; defaults to the configured value"`
	Mode   string `json:"mode,omitempty" jsonschema:"window anchoring: rolling (last N*24 hours) or midnight (whole calendar days)"`
	Author string `json:"author,omitempty" jsonschema:"only include commits whose author matches this pattern"`
	Filter string `json:"filter,omitempty" jsonschema:"only include repositories whose name contains this text"`
}

type activityReportOutput struct {
	Report  string `json:"report"`
	Window  string `json:"window"`
	Scanned int    `json:"scanned"`
	Active  int    `json:"active"`
}

func (s *Server) handleActivityReport(ctx context.Context, _ *gomcp.CallToolRequest, input activityReportInput) (*gomcp.CallToolResult, activityReportOutput, error) {
	if input.Days < 0 {
		return errorResult(fmt.Sprintf("days must be positive, got %d", input.Days)), activityReportOutput{}, nil
	}
	switch strings.ToLower(strings.TrimSpace(input.Mode)) {
	case "", string(window.Rolling), string(window.Midnight):
	default:
		return errorResult(fmt.Sprintf("invalid mode %q: must be rolling or midnight", input.Mode)), activityReportOutput{}, nil
	}

	rep, w, scanned, err := s.collector.Collect(ctx, digest.Query{
		Days:   input.Days,
		Mode:   input.Mode,
		Author: input.Author,
		Filter: input.Filter,
	})
	if err != nil {
		s.logger.WithError(err).Warn("activity report failed")
		return errorResult(fmt.Sprintf("collecting activity: %s", err)), activityReportOutput{}, nil
	}

	text := rep.String()
	s.logger.WithFields(logrus.Fields{
		"scanned": scanned,
		"active":  rep.RepoCount(),
	}).Debug("activity report served")

	out := activityReportOutput{
		Report:  text,
		Window:  fmt.Sprintf("%d day(s), %s", w.Days, w.Mode),
		Scanned: scanned,
		Active:  rep.RepoCount(),
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}, out, nil
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
