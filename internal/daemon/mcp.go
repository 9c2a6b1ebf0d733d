package daemon

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/geoapi-labs/ogcd/internal/cmd"
	"github.com/geoapi-labs/ogcd/internal/prompts"
	"github.com/geoapi-labs/ogcd/internal/registry"
)

// buildMCPServer assembles the MCP server: every published operation as a
// tool, discovered capability documents as resources, and the workflow
// prompts. A refresh listener keeps the tool list in step with the registry.
func (d *Daemon) buildMCPServer() *server.MCPServer {
	s := server.NewMCPServer(
		"ogcd",
		cmd.Version(),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	for _, def := range prompts.All() {
		s.AddPrompt(def.Prompt, promptHandler(def))
	}

	d.syncOperations(s, d.registry.Published())
	d.syncResources(s)

	d.registry.OnRefresh(func(set *registry.OperationSet) {
		d.syncOperations(s, set)
		d.syncResources(s)
	})

	return s
}

// syncOperations reconciles the server's tool list with an operation set.
// Tools are upserted for every operation; dynamic tools that disappeared
// since the previous sync are deleted. Built-ins are never deleted.
func (d *Daemon) syncOperations(s *server.MCPServer, set *registry.OperationSet) {
	dynamic := set.Dynamic()

	d.mu.Lock()
	current := make(map[string]struct{}, len(dynamic))
	for _, name := range dynamic {
		current[name] = struct{}{}
	}
	var removed []string
	for name := range d.dynamicTools {
		if _, ok := current[name]; !ok {
			removed = append(removed, name)
		}
	}
	d.dynamicTools = current
	d.mu.Unlock()

	if len(removed) > 0 {
		d.logger.Info("removing stale process tools", "tools", removed)
		s.DeleteTools(removed...)
	}

	for _, name := range set.Names() {
		op, ok := set.Get(name)
		if !ok {
			continue
		}
		s.AddTool(op.Tool, d.toolHandler(op.Tool.Name))
	}
}

// syncResources reconciles the server's resource list with the discovered
// capability documents: documents are regenerated wholesale per discovery
// cycle, so URIs that vanished since the previous sync are delisted.
func (d *Daemon) syncResources(s *server.MCPServer) {
	listed := d.resources.List()

	d.mu.Lock()
	current := make(map[string]struct{}, len(listed))
	for _, res := range listed {
		current[res.URI] = struct{}{}
	}
	var removed []string
	for uri := range d.resourceURIs {
		if _, ok := current[uri]; !ok {
			removed = append(removed, uri)
		}
	}
	d.resourceURIs = current
	d.mu.Unlock()

	if len(removed) > 0 {
		d.logger.Info("removing stale context documents", "resources", removed)
		s.DeleteResources(removed...)
	}

	for _, res := range listed {
		s.AddResource(res, d.resourceHandler())
	}
}

// toolHandler adapts a registry operation to the MCP tool contract. Domain
// errors surface as tool results, not protocol errors, so the model can read
// and react to them.
func (d *Daemon) toolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := d.registry.Invoke(ctx, name, request.GetArguments())
		if err != nil {
			d.logger.Warn("tool invocation failed", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}

func (d *Daemon) resourceHandler() server.ResourceHandlerFunc {
	return func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return d.resources.Read(request.Params.URI)
	}
}

func promptHandler(def prompts.Definition) server.PromptHandlerFunc {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		text, err := def.Render(request.Params.Arguments)
		if err != nil {
			return nil, err
		}
		return mcp.NewGetPromptResult(def.Prompt.Description, []mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
		}), nil
	}
}
