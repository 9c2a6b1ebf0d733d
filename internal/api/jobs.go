package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/geoapi-labs/ogcd/internal/contracts"
	"github.com/geoapi-labs/ogcd/internal/errors"
	"github.com/geoapi-labs/ogcd/internal/jobs"
)

// JobsResponse represents the wrapped API response for a list of jobs.
type JobsResponse struct {
	Body []jobs.Info
}

// JobRequest represents the incoming API request for a single job.
type JobRequest struct {
	ID string `doc:"Identifier of the job" example:"f2c47d2e" path:"id"`
}

// JobResponse wraps a single job snapshot.
type JobResponse struct {
	Body jobs.Info
}

// JobResultsResponse wraps the result payload of a successful job.
type JobResultsResponse struct {
	Body json.RawMessage
}

// RegisterJobRoutes sets up job lifecycle API endpoints.
func RegisterJobRoutes(routerAPI huma.API, accessor contracts.JobAccessor, apiPathPrefix string) {
	jobsAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Jobs"}

	huma.Register(
		jobsAPI,
		huma.Operation{
			OperationID: "listJobs",
			Method:      http.MethodGet,
			Summary:     "List tracked jobs",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*JobsResponse, error) {
			return handleJobs(accessor)
		},
	)

	huma.Register(
		jobsAPI,
		huma.Operation{
			OperationID: "getJob",
			Method:      http.MethodGet,
			Path:        "/{id}",
			Summary:     "Get a job's status",
			Tags:        tags,
		},
		func(ctx context.Context, input *JobRequest) (*JobResponse, error) {
			return handleJob(accessor, input.ID)
		},
	)

	huma.Register(
		jobsAPI,
		huma.Operation{
			OperationID: "getJobResults",
			Method:      http.MethodGet,
			Path:        "/{id}/results",
			Summary:     "Get a successful job's results",
			Tags:        tags,
		},
		func(ctx context.Context, input *JobRequest) (*JobResultsResponse, error) {
			return handleJobResults(ctx, accessor, input.ID)
		},
	)

	huma.Register(
		jobsAPI,
		huma.Operation{
			OperationID: "dismissJob",
			Method:      http.MethodDelete,
			Path:        "/{id}",
			Summary:     "Dismiss a job",
			Tags:        tags,
		},
		func(ctx context.Context, input *JobRequest) (*JobResponse, error) {
			return handleDismissJob(ctx, accessor, input.ID)
		},
	)
}

// handleJobs returns snapshots of all tracked jobs.
func handleJobs(accessor contracts.JobAccessor) (*JobsResponse, error) {
	resp := &JobsResponse{}
	resp.Body = accessor.List()

	return resp, nil
}

// handleJob returns one job's snapshot.
func handleJob(accessor contracts.JobAccessor, id string) (*JobResponse, error) {
	job, ok := accessor.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrJobNotFound, id)
	}

	resp := &JobResponse{}
	resp.Body = job.Snapshot()

	return resp, nil
}

// handleJobResults returns a successful job's result payload.
func handleJobResults(ctx context.Context, accessor contracts.JobAccessor, id string) (*JobResultsResponse, error) {
	job, ok := accessor.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrJobNotFound, id)
	}

	payload, err := accessor.Results(ctx, job)
	if err != nil {
		return nil, err
	}

	resp := &JobResultsResponse{}
	resp.Body = payload

	return resp, nil
}

// handleDismissJob cancels a non-terminal job and returns its final snapshot.
func handleDismissJob(ctx context.Context, accessor contracts.JobAccessor, id string) (*JobResponse, error) {
	job, ok := accessor.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrJobNotFound, id)
	}

	if _, err := accessor.Dismiss(ctx, job); err != nil {
		return nil, err
	}

	resp := &JobResponse{}
	resp.Body = job.Snapshot()

	return resp, nil
}
