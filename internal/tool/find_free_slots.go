package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type FindFreeSlotsRequest struct {
	DurationMinutes int    `json:"duration_minutes,omitempty" jsonschema:"meeting length in minutes, default 30"`
	Count           int    `json:"count,omitempty" jsonschema:"number of slots to return, default 3, max 10"`
	Timezone        string `json:"timezone,omitempty" jsonschema:"IANA zone for business hours, default from config"`
}

type FindFreeSlotsResponse struct {
	Slots    []Slot `json:"slots" jsonschema:"free windows in chronological order"`
	Timezone string `json:"timezone" jsonschema:"zone the slots were computed in"`
}

type freeSlotsSvc interface {
	FindFreeSlots(ctx context.Context, durationMinutes, targetCount int, now time.Time, timezone string) ([]types.FreeSlot, error)
}

func NewFindFreeSlots(svc freeSlotsSvc, timezone string, now func() time.Time) *FindFreeSlots {
	if now == nil {
		now = time.Now
	}
	return &FindFreeSlots{svc: svc, timezone: timezone, now: now}
}

type FindFreeSlots struct {
	svc      freeSlotsSvc
	timezone string
	now      func() time.Time
}

func (t *FindFreeSlots) FindFreeSlots(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input FindFreeSlotsRequest,
) (*mcp.CallToolResult, FindFreeSlotsResponse, error) {
	if input.DurationMinutes == 0 {
		input.DurationMinutes = 30
	}
	input.Count = normalizeCount(input.Count)
	if input.Timezone == "" {
		input.Timezone = t.timezone
	}

	slots, err := t.svc.FindFreeSlots(ctx, input.DurationMinutes, input.Count, t.now(), input.Timezone)
	if err != nil {
		return nil, FindFreeSlotsResponse{}, fmt.Errorf("svc.FindFreeSlots failed: %w", err)
	}

	return nil, FindFreeSlotsResponse{Slots: slotsFrom(slots), Timezone: input.Timezone}, nil
}

func normalizeCount(count int) int {
	if count <= 0 {
		return 3
	}
	if count > 10 {
		return 10
	}
	return count
}
