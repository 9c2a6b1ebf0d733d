// Package resources exposes discovered server capabilities as MCP context
// documents under the ogc:// URI scheme.
package resources

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/ogc"
	"github.com/geoapi-labs/ogcd/internal/schema"
)

const mimeJSON = "application/json"

// SnapshotSource is the registry surface the provider reads from.
type SnapshotSource interface {
	Servers() []string
	Snapshot(serverURL string) (*ogc.ServerCapability, bool)
}

// Provider lists and reads ogc:// resources backed by capability snapshots.
// Resource URIs are stable across refreshes as long as the underlying
// collection or process survives.
type Provider struct {
	source SnapshotSource
}

// NewProvider creates a Provider over a snapshot source.
func NewProvider(source SnapshotSource) *Provider {
	return &Provider{source: source}
}

// ServerIdentity derives the URI-safe identity for a server base URL:
// scheme, host and path with every separator run collapsed to one underscore.
// Identities are unique across servers because the full URL participates.
func ServerIdentity(baseURL string) string {
	return schema.Slug(baseURL)
}

// List returns every readable resource: one server info document per
// discovered server plus one document per collection and per process.
func (p *Provider) List() []mcp.Resource {
	var out []mcp.Resource

	for _, serverURL := range p.source.Servers() {
		snap, ok := p.source.Snapshot(serverURL)
		if !ok {
			continue
		}
		identity := ServerIdentity(serverURL)

		out = append(out, mcp.Resource{
			URI:         fmt.Sprintf("ogc://%s/server/info", identity),
			Name:        fmt.Sprintf("%s — server capabilities", snap.Title),
			Description: fmt.Sprintf("Capability summary for %s", serverURL),
			MIMEType:    mimeJSON,
		})

		for _, col := range snap.Collections {
			out = append(out, mcp.Resource{
				URI:         fmt.Sprintf("ogc://%s/collections/%s", identity, col.ID),
				Name:        col.Title,
				Description: fmt.Sprintf("Collection %s on %s", col.ID, serverURL),
				MIMEType:    mimeJSON,
			})
		}

		for _, proc := range snap.Processes {
			out = append(out, mcp.Resource{
				URI:         fmt.Sprintf("ogc://%s/processes/%s", identity, proc.ID),
				Name:        proc.Title,
				Description: fmt.Sprintf("Process %s on %s", proc.ID, serverURL),
				MIMEType:    mimeJSON,
			})
		}
	}

	return out
}

// Read resolves an ogc:// URI to its document.
func (p *Provider) Read(uri string) ([]mcp.ResourceContents, error) {
	rest, ok := strings.CutPrefix(uri, "ogc://")
	if !ok {
		return nil, fmt.Errorf("%w: unsupported resource URI %q", errors.ErrBadRequest, uri)
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: malformed resource URI %q", errors.ErrBadRequest, uri)
	}
	identity := parts[0]

	snap, ok := p.snapshotByIdentity(identity)
	if !ok {
		return nil, fmt.Errorf("%w: no discovered server matches %q", errors.ErrServerNotFound, identity)
	}

	var doc any
	switch {
	case parts[1] == "server" && len(parts) == 3 && parts[2] == "info":
		doc = snap
	case parts[1] == "collections" && len(parts) == 3:
		col, ok := snap.Collection(parts[2])
		if !ok {
			return nil, fmt.Errorf("%w: collection %q not found on %s", errors.ErrBadRequest, parts[2], snap.BaseURL)
		}
		doc = col
	case parts[1] == "processes" && len(parts) == 3:
		proc, ok := snap.Process(parts[2])
		if !ok {
			return nil, fmt.Errorf("%w: process %q not found on %s", errors.ErrBadRequest, parts[2], snap.BaseURL)
		}
		doc = proc
	default:
		return nil, fmt.Errorf("%w: unknown resource path %q", errors.ErrBadRequest, uri)
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrDecode, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(payload),
		},
	}, nil
}

func (p *Provider) snapshotByIdentity(identity string) (*ogc.ServerCapability, bool) {
	for _, serverURL := range p.source.Servers() {
		if ServerIdentity(serverURL) != identity {
			continue
		}
		if snap, ok := p.source.Snapshot(serverURL); ok {
			return snap, true
		}
	}
	return nil, false
}
