// Package registry synthesizes callable operations from discovered OGC server
// capabilities and dispatches invocations against them. The published
// operation set is an immutable snapshot replaced wholesale on refresh.
package registry

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handler executes an operation with validated arguments.
type Handler func(ctx context.Context, args map[string]any) (*Result, error)

// Result is the outcome of a successful invocation. Text is a human-readable
// rendering for LLM consumption; Data is the structured payload handed back
// unmapped from the backend.
type Result struct {
	Text string
	Data any
}

// Operation is a callable, schema-typed unit of work: either a fixed built-in
// or one synthesized from a discovered process.
type Operation struct {
	// Tool carries the stable name, description and parameter schema.
	Tool mcp.Tool

	// ServerURL identifies the origin server for dynamic operations.
	// Empty for built-ins, which accept a server_url argument instead.
	ServerURL string

	// ProcessID is the origin process identifier for dynamic operations.
	ProcessID string

	// Dynamic marks operations replaced on refresh. Built-ins are never
	// replaced.
	Dynamic bool

	Handler Handler
}

// OperationSet is an immutable, named lookup of operations. Consumers holding
// a set keep a consistent view even while a refresh builds its successor.
type OperationSet struct {
	ops map[string]*Operation
}

// newOperationSet builds a set from operations. Later duplicates by name are
// rejected by the registry before this point; the set itself just stores.
func newOperationSet(ops []*Operation) *OperationSet {
	m := make(map[string]*Operation, len(ops))
	for _, op := range ops {
		m[op.Tool.Name] = op
	}
	return &OperationSet{ops: m}
}

// Get returns the operation with the given name.
func (s *OperationSet) Get(name string) (*Operation, bool) {
	op, ok := s.ops[name]
	return op, ok
}

// Len returns the number of operations in the set.
func (s *OperationSet) Len() int {
	return len(s.ops)
}

// Names returns all operation names in lexicographic order.
func (s *OperationSet) Names() []string {
	names := make([]string, 0, len(s.ops))
	for name := range s.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tools returns the MCP tools for every operation, ordered by name.
func (s *OperationSet) Tools() []mcp.Tool {
	names := s.Names()
	tools := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, s.ops[name].Tool)
	}
	return tools
}

// Dynamic returns the names of dynamic operations, ordered by name.
func (s *OperationSet) Dynamic() []string {
	var names []string
	for name, op := range s.ops {
		if op.Dynamic {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
