package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type InterpretReplyRequest struct {
	Reply      string           `json:"reply" jsonschema:"the user's free-form answer"`
	Candidates []CandidateCheck `json:"candidates" jsonschema:"checked candidates the user chose from"`
}

type InterpretReplyResponse struct {
	Index  int            `json:"index" jsonschema:"zero-based index of the chosen candidate"`
	Chosen CandidateCheck `json:"chosen" jsonschema:"the chosen candidate"`
}

type replyInterpreter interface {
	Interpret(ctx context.Context, text string, candidates []types.ProposedTimeCheck) (int, error)
}

func NewInterpretReply(svc replyInterpreter) *InterpretReply {
	return &InterpretReply{svc: svc}
}

type InterpretReply struct {
	svc replyInterpreter
}

func (t *InterpretReply) InterpretReply(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input InterpretReplyRequest,
) (*mcp.CallToolResult, InterpretReplyResponse, error) {
	candidates := make([]types.ProposedTimeCheck, 0, len(input.Candidates))
	for _, c := range input.Candidates {
		candidates = append(candidates, c.toTypes())
	}

	idx, err := t.svc.Interpret(ctx, input.Reply, candidates)
	if err != nil {
		return nil, InterpretReplyResponse{}, fmt.Errorf("svc.Interpret failed: %w", err)
	}

	return nil, InterpretReplyResponse{Index: idx, Chosen: input.Candidates[idx]}, nil
}
