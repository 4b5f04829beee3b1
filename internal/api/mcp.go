package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SherifTito77/PsychSync-sub002/internal/member"
	"github.com/SherifTito77/PsychSync-sub002/internal/optimizer"
	"github.com/SherifTito77/PsychSync-sub002/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store     *storage.Store
	Optimizer *optimizer.Optimizer
}

// NewMCPServer creates an MCP server exposing the roster and the team
// optimizer as assistant tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"psychsync",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("psychsync — team composition optimizer over a stored member roster."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("optimize_team",
			mcp.WithDescription("Find the best team compositions from the stored roster for a given objective."),
			mcp.WithString("objective", mcp.Description("One of maximize_performance, minimize_conflicts, balance_diversity, optimize_collaboration (default maximize_performance)")),
			mcp.WithNumber("top_k", mcp.Description("Maximum number of recommended teams (default 5)")),
		),
		mcpOptimizeTeam(deps),
	)

	s.AddTool(
		mcp.NewTool("add_member",
			mcp.WithDescription("Add or update a member in the roster used for team optimization."),
			mcp.WithString("name", mcp.Description("Member display name")),
			mcp.WithString("role", mcp.Description("Functional role: developer, designer, pm, qa or devops"), mcp.Required()),
			mcp.WithArray("skills", mcp.Description("Skill list, e.g. [\"python\", \"react\"]")),
			mcp.WithString("traits", mcp.Description("JSON object of Big Five trait scores in [0,1], e.g. {\"conscientiousness\":0.8}")),
			mcp.WithNumber("experience_years", mcp.Description("Years of experience")),
			mcp.WithNumber("availability", mcp.Description("Availability fraction in [0,1], default 1")),
		),
		mcpAddMember(deps),
	)

	s.AddTool(
		mcp.NewTool("list_members",
			mcp.WithDescription("List the current roster as JSON."),
		),
		mcpListMembers(deps),
	)

	s.AddTool(
		mcp.NewTool("remove_member",
			mcp.WithDescription("Remove a member from the roster."),
			mcp.WithString("id", mcp.Description("Member ID"), mcp.Required()),
		),
		mcpRemoveMember(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"roster://members",
			"Member Roster",
			mcp.WithResourceDescription("Current member roster as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRoster(deps),
	)

	return s
}

func mcpOptimizeTeam(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objective := req.GetString("objective", "")
		topK := req.GetInt("top_k", 0)

		stored, err := deps.Store.ListMembers()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load roster: %v", err)), nil
		}

		records := make([]member.Record, 0, len(stored))
		for _, m := range stored {
			rec, err := recordFromStored(m)
			if err != nil {
				return mcpError(fmt.Sprintf("corrupt roster entry %s: %v", m.ID, err)), nil
			}
			records = append(records, rec)
		}

		opt := deps.Optimizer
		if topK > 0 {
			opt = opt.With(optimizer.Options{TopK: topK})
		}

		result, err := opt.Optimize(ctx, member.NewPool(records), objective)
		if errors.Is(err, optimizer.ErrInsufficientCandidates) {
			return mcpError(fmt.Sprintf("roster has %d members; at least 3 are needed", len(records))), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("optimization failed: %v", err)), nil
		}

		runID := saveRun(deps.Store, result)

		b, err := json.Marshal(OptimizeResponse{RunID: runID, Result: result})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAddMember(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		role, err := req.RequireString("role")
		if err != nil {
			return mcpError("role is required"), nil
		}

		rec := member.Record{
			ID:     uuid.New().String(),
			Name:   req.GetString("name", ""),
			Role:   role,
			Skills: req.GetStringSlice("skills", nil),
		}

		if traitsJSON := req.GetString("traits", ""); traitsJSON != "" {
			if err := json.Unmarshal([]byte(traitsJSON), &rec.Traits); err != nil {
				return mcpError(fmt.Sprintf("invalid traits JSON: %v", err)), nil
			}
		}
		if exp := req.GetFloat("experience_years", -1); exp >= 0 {
			rec.ExperienceYears = &exp
		}
		if avail := req.GetFloat("availability", -1); avail >= 0 {
			rec.Availability = &avail
		}

		stored, err := storedFromRecord(rec)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to encode member: %v", err)), nil
		}
		if err := deps.Store.SaveMember(stored); err != nil {
			return mcpError(fmt.Sprintf("failed to save member: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Added member %s", rec.ID)), nil
	}
}

func mcpListMembers(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := rosterJSON(deps.Store)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpRemoveMember(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}

		err = deps.Store.DeleteMember(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("no member with ID %s", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to remove member: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Removed member %s", id)), nil
	}
}

func mcpResourceRoster(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := rosterJSON(deps.Store)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func rosterJSON(store *storage.Store) ([]byte, error) {
	stored, err := store.ListMembers()
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	type rosterEntry struct {
		member.Record
		CreatedAt string `json:"created_at"`
	}

	entries := make([]rosterEntry, 0, len(stored))
	for _, m := range stored {
		rec, err := recordFromStored(m)
		if err != nil {
			return nil, fmt.Errorf("corrupt roster entry %s: %w", m.ID, err)
		}
		entries = append(entries, rosterEntry{
			Record:    rec,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}

	b, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roster: %w", err)
	}
	return b, nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
