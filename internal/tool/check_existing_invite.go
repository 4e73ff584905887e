package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type CheckExistingInviteRequest struct {
	Analysis Analysis `json:"analysis" jsonschema:"thread analysis with the agreed time"`
}

type inviteChecker interface {
	CheckExistingInvite(ctx context.Context, analysis *types.ThreadAnalysis) types.InviteCheckResult
}

func NewCheckExistingInvite(svc inviteChecker) *CheckExistingInvite {
	return &CheckExistingInvite{svc: svc}
}

type CheckExistingInvite struct {
	svc inviteChecker
}

func (t *CheckExistingInvite) CheckExistingInvite(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CheckExistingInviteRequest,
) (*mcp.CallToolResult, InviteCheck, error) {
	analysis, err := input.Analysis.toTypes()
	if err != nil {
		return nil, InviteCheck{}, err
	}

	return nil, inviteCheckFrom(t.svc.CheckExistingInvite(ctx, analysis)), nil
}
