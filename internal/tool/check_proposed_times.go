package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type CheckProposedTimesRequest struct {
	Candidates      []Candidate `json:"candidates" jsonschema:"proposed times to check"`
	DurationMinutes int         `json:"duration_minutes,omitempty" jsonschema:"meeting length in minutes, default 30"`
}

type CheckProposedTimesResponse struct {
	Checks []CandidateCheck `json:"checks" jsonschema:"candidates annotated with their conflict state, input order"`
}

type proposedTimesSvc interface {
	CheckProposedTimes(ctx context.Context, candidates []types.ProposedTime, durationMinutes int) ([]types.ProposedTimeCheck, error)
}

func NewCheckProposedTimes(svc proposedTimesSvc) *CheckProposedTimes {
	return &CheckProposedTimes{svc: svc}
}

type CheckProposedTimes struct {
	svc proposedTimesSvc
}

func (t *CheckProposedTimes) CheckProposedTimes(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CheckProposedTimesRequest,
) (*mcp.CallToolResult, CheckProposedTimesResponse, error) {
	if input.DurationMinutes == 0 {
		input.DurationMinutes = 30
	}

	candidates := make([]types.ProposedTime, 0, len(input.Candidates))
	for _, c := range input.Candidates {
		candidates = append(candidates, c.toTypes())
	}

	checks, err := t.svc.CheckProposedTimes(ctx, candidates, input.DurationMinutes)
	if err != nil {
		return nil, CheckProposedTimesResponse{}, fmt.Errorf("svc.CheckProposedTimes failed: %w", err)
	}

	return nil, CheckProposedTimesResponse{Checks: checksFrom(checks)}, nil
}
