package ogc

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/transport"
)

// detailConcurrency bounds parallel follow-up detail fetches per facet.
const detailConcurrency = 4

// Discoverer builds ServerCapability snapshots from live OGC servers.
type Discoverer struct {
	logger    hclog.Logger
	clientOpt []transport.Option
}

// NewDiscoverer creates a Discoverer. Transport options are applied to every
// client the discoverer creates.
func NewDiscoverer(logger hclog.Logger, clientOpt ...transport.Option) *Discoverer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Discoverer{
		logger:    logger.Named("discover"),
		clientOpt: clientOpt,
	}
}

// landingPage is the subset of the OGC API landing page the discoverer needs.
type landingPage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Links       []Link `json:"links"`
}

// Discover fetches a server's landing page, conformance declaration,
// collection list and process list, resolving each summary with one follow-up
// detail fetch, and returns an immutable capability snapshot.
//
// Only the landing page is a hard precondition. Every other facet is
// best-effort: a failed facet is recorded on the snapshot's Partial list and
// discovery still succeeds. Real OGC deployments frequently implement only a
// subset of the API families.
func (d *Discoverer) Discover(ctx context.Context, baseURL string) (*ServerCapability, error) {
	client, err := transport.New(baseURL, d.clientOpt...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrDiscovery, err)
	}

	raw, err := client.Get(ctx, "/", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: landing page unreachable at %s: %w", errors.ErrDiscovery, client.BaseURL(), err)
	}

	var landing landingPage
	if err := json.Unmarshal(raw, &landing); err != nil {
		return nil, fmt.Errorf("%w: landing page at %s is not an OGC API document: %w", errors.ErrDiscovery, client.BaseURL(), err)
	}

	snap := &ServerCapability{
		BaseURL:     client.BaseURL(),
		Title:       landing.Title,
		Description: landing.Description,
	}
	if snap.Title == "" {
		snap.Title = "Unknown OGC Server"
	}

	snap.ConformsTo = d.fetchConformance(ctx, client, snap)
	snap.Collections = d.fetchCollections(ctx, client, snap)
	snap.Processes = d.fetchProcesses(ctx, client, snap)
	snap.Capabilities = DetectCapabilities(landing.Links, snap.ConformsTo)

	d.logger.Info("discovered server",
		"url", snap.BaseURL,
		"title", snap.Title,
		"collections", len(snap.Collections),
		"processes", len(snap.Processes),
		"partial", snap.Partial,
	)

	return snap, nil
}

func (d *Discoverer) fetchConformance(ctx context.Context, client *transport.Client, snap *ServerCapability) []string {
	raw, err := client.Get(ctx, "/conformance", nil)
	if err != nil {
		d.logger.Warn("conformance fetch failed", "url", snap.BaseURL, "error", err)
		snap.Partial = append(snap.Partial, FacetConformance)
		return nil
	}

	var doc struct {
		ConformsTo []string `json:"conformsTo"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		d.logger.Warn("conformance document malformed", "url", snap.BaseURL, "error", err)
		snap.Partial = append(snap.Partial, FacetConformance)
		return nil
	}

	return doc.ConformsTo
}

func (d *Discoverer) fetchCollections(ctx context.Context, client *transport.Client, snap *ServerCapability) []Collection {
	raw, err := client.Get(ctx, "/collections", nil)
	if err != nil {
		d.logger.Warn("collections fetch failed", "url", snap.BaseURL, "error", err)
		snap.Partial = append(snap.Partial, FacetCollections)
		return nil
	}

	var doc struct {
		Collections []Collection `json:"collections"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		d.logger.Warn("collections document malformed", "url", snap.BaseURL, "error", err)
		snap.Partial = append(snap.Partial, FacetCollections)
		return nil
	}

	collections := doc.Collections
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)

	for i := range collections {
		g.Go(func() error {
			summary := collections[i]
			detailRaw, err := client.Get(gctx, "/collections/"+summary.ID, nil)
			if err != nil {
				// Keep the summary; the detail fetch is an enrichment.
				d.logger.Warn("collection detail fetch failed", "collection", summary.ID, "error", err)
				return nil
			}
			var detail Collection
			if err := json.Unmarshal(detailRaw, &detail); err != nil {
				d.logger.Warn("collection detail malformed", "collection", summary.ID, "error", err)
				return nil
			}
			if detail.ID == "" {
				detail.ID = summary.ID
			}
			collections[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	for i := range collections {
		if collections[i].ItemType == "" {
			collections[i].ItemType = ItemTypeFeature
		}
		if collections[i].Title == "" {
			collections[i].Title = collections[i].ID
		}
	}

	slices.SortFunc(collections, func(a, b Collection) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return collections
}

func (d *Discoverer) fetchProcesses(ctx context.Context, client *transport.Client, snap *ServerCapability) []Process {
	raw, err := client.Get(ctx, "/processes", nil)
	if err != nil {
		d.logger.Warn("processes fetch failed", "url", snap.BaseURL, "error", err)
		snap.Partial = append(snap.Partial, FacetProcesses)
		return nil
	}

	var doc struct {
		Processes []Process `json:"processes"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		d.logger.Warn("processes document malformed", "url", snap.BaseURL, "error", err)
		snap.Partial = append(snap.Partial, FacetProcesses)
		return nil
	}

	processes := doc.Processes
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)

	for i := range processes {
		g.Go(func() error {
			summary := processes[i]
			detailRaw, err := client.Get(gctx, "/processes/"+summary.ID, nil)
			if err != nil {
				d.logger.Warn("process detail fetch failed", "process", summary.ID, "error", err)
				return nil
			}
			var detail Process
			if err := json.Unmarshal(detailRaw, &detail); err != nil {
				d.logger.Warn("process detail malformed", "process", summary.ID, "error", err)
				return nil
			}
			if detail.ID == "" {
				detail.ID = summary.ID
			}
			processes[i] = detail
			return nil
		})
	}
	_ = g.Wait()

	for i := range processes {
		if processes[i].Title == "" {
			processes[i].Title = processes[i].ID
		}
		if processes[i].Version == "" {
			processes[i].Version = "1.0.0"
		}
		if len(processes[i].JobControlOptions) == 0 {
			processes[i].JobControlOptions = []string{ExecuteSync}
		}
	}

	// Deterministic order regardless of server enumeration order; operation
	// name collision suffixes depend on it.
	slices.SortFunc(processes, func(a, b Process) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return processes
}
