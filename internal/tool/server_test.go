package tool_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-scheduler/internal/autoprocess"
	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/invite"
	"github.com/hal9000y/gmail-scheduler/internal/tool"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

const owner = "me@example.com"

var now = time.Date(2026, time.October, 14, 13, 0, 0, 0, time.UTC)

func testThread() *types.Thread {
	return &types.Thread{ID: "t1", Subject: "Intro call", Messages: []types.Message{
		{ID: "m1", From: "Ann Lee <ann@example.com>", Body: "Can we talk Thursday?"},
		{ID: "m2", From: owner, Body: "Sure, what time?"},
		{ID: "m3", From: "ann@example.com", Body: "10am works"},
	}}
}

func defaultDeps() tool.Deps {
	return tool.Deps{
		Slots: &slotsMock{
			FindFreeSlotsFunc: func(context.Context, int, int, time.Time, string) ([]types.FreeSlot, error) {
				return nil, nil
			},
			CheckProposedTimesFunc: func(context.Context, []types.ProposedTime, int) ([]types.ProposedTimeCheck, error) {
				return nil, nil
			},
		},
		Interpreter: &interpreterMock{InterpretFunc: func(context.Context, string, []types.ProposedTimeCheck) (int, error) {
			return 0, nil
		}},
		Invites: &inviteMock{CheckExistingInviteFunc: func(context.Context, *types.ThreadAnalysis) types.InviteCheckResult {
			return types.InviteCheckResult{Method: types.MethodNotFound}
		}},
		Booker: &bookerMock{BookFunc: func(context.Context, *types.ThreadAnalysis) (invite.BookResult, error) {
			return invite.BookResult{}, nil
		}},
		Mail: &mailMock{
			OwnerEmailFunc: func(context.Context) (string, error) { return owner, nil },
			GetThreadFunc: func(_ context.Context, id string) (*types.Thread, error) {
				if id != "t1" {
					return nil, errors.New("404 thread not found")
				}
				return testThread(), nil
			},
			SendReplyFunc: func(context.Context, *types.Thread, string, string) error { return nil },
		},
		Classifier: &classifierMock{ClassifyFunc: func(context.Context, classifier.Request) (*types.ThreadAnalysis, error) {
			return &types.ThreadAnalysis{Status: types.StatusNotScheduling}, nil
		}},
		Auto: &autoMock{RunFunc: func(context.Context) (autoprocess.Report, error) {
			return autoprocess.Report{Skipped: true}, nil
		}},
		Timezone: "America/New_York",
		Now:      func() time.Time { return now },
	}
}

func connect(t *testing.T, deps tool.Deps) *mcp.ClientSession {
	t.Helper()

	server := tool.NewServer(deps)
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ctx := context.Background()

	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientSession.Close() })

	return clientSession
}

// call invokes a tool and decodes its text result into out. It returns the
// error text when the tool failed.
func call(t *testing.T, session *mcp.ClientSession, name string, args any, out any) string {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text := result.Content[0].(*mcp.TextContent).Text
	if result.IsError {
		return text
	}
	require.NoError(t, json.Unmarshal([]byte(text), out))
	return ""
}

func TestListTools(t *testing.T) {
	session := connect(t, defaultDeps())

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tl := range res.Tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{
		"find_free_slots", "check_proposed_times", "interpret_reply", "check_existing_invite",
		"analyze_thread", "send_reply", "book_meeting", "run_auto_process",
	}, names)
}

func TestFindFreeSlots(t *testing.T) {
	deps := defaultDeps()
	var gotDuration, gotCount int
	var gotTZ string
	start := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	deps.Slots.(*slotsMock).FindFreeSlotsFunc = func(_ context.Context, d, c int, n time.Time, tz string) ([]types.FreeSlot, error) {
		gotDuration, gotCount, gotTZ = d, c, tz
		assert.True(t, n.Equal(now))
		if tz == "Mars/Olympus" {
			return nil, types.ErrValidation
		}
		return []types.FreeSlot{{Start: start, End: start.Add(3 * time.Hour), DisplayText: "Thu Oct 15, 9:00 AM - 12:00 PM UTC"}}, nil
	}
	session := connect(t, deps)

	var resp tool.FindFreeSlotsResponse
	require.Empty(t, call(t, session, "find_free_slots", tool.FindFreeSlotsRequest{}, &resp))
	assert.Equal(t, 30, gotDuration)
	assert.Equal(t, 3, gotCount)
	assert.Equal(t, "America/New_York", gotTZ)
	assert.Equal(t, tool.FindFreeSlotsResponse{
		Timezone: "America/New_York",
		Slots: []tool.Slot{{
			Start:       "2026-10-15T09:00:00Z",
			End:         "2026-10-15T12:00:00Z",
			DisplayText: "Thu Oct 15, 9:00 AM - 12:00 PM UTC",
		}},
	}, resp)

	require.Empty(t, call(t, session, "find_free_slots", tool.FindFreeSlotsRequest{DurationMinutes: 60, Count: 50, Timezone: "UTC"}, &resp))
	assert.Equal(t, 60, gotDuration)
	assert.Equal(t, 10, gotCount)
	assert.Equal(t, "UTC", gotTZ)

	errText := call(t, session, "find_free_slots", tool.FindFreeSlotsRequest{Timezone: "Mars/Olympus"}, &resp)
	assert.Contains(t, errText, "validation error")
}

func TestFindFreeSlotsEmpty(t *testing.T) {
	session := connect(t, defaultDeps())

	var resp tool.FindFreeSlotsResponse
	require.Empty(t, call(t, session, "find_free_slots", tool.FindFreeSlotsRequest{}, &resp))
	assert.NotNil(t, resp.Slots)
	assert.Empty(t, resp.Slots)
}

func TestCheckProposedTimes(t *testing.T) {
	deps := defaultDeps()
	deps.Slots.(*slotsMock).CheckProposedTimesFunc = func(_ context.Context, cands []types.ProposedTime, d int) ([]types.ProposedTimeCheck, error) {
		assert.Equal(t, 45, d)
		out := make([]types.ProposedTimeCheck, 0, len(cands))
		for i, c := range cands {
			state := types.ConflictFree
			if i == 1 {
				state = types.ConflictBusy
			}
			out = append(out, types.ProposedTimeCheck{ProposedTime: c, ConflictState: state, Label: string(state)})
		}
		return out, nil
	}
	session := connect(t, deps)

	var resp tool.CheckProposedTimesResponse
	require.Empty(t, call(t, session, "check_proposed_times", tool.CheckProposedTimesRequest{
		DurationMinutes: 45,
		Candidates: []tool.Candidate{
			{DisplayText: "Thu 10am", StartISO: "2026-10-15T10:00:00-04:00"},
			{DisplayText: "Fri 2pm", StartISO: "2026-10-16T14:00:00-04:00"},
		},
	}, &resp))

	require.Len(t, resp.Checks, 2)
	assert.Equal(t, "free", resp.Checks[0].ConflictState)
	assert.Equal(t, "busy", resp.Checks[1].ConflictState)
	assert.Equal(t, "Fri 2pm", resp.Checks[1].DisplayText)
}

func TestInterpretReply(t *testing.T) {
	deps := defaultDeps()
	deps.Interpreter.(*interpreterMock).InterpretFunc = func(_ context.Context, text string, cands []types.ProposedTimeCheck) (int, error) {
		if len(cands) == 0 {
			return 0, types.ErrValidation
		}
		assert.Equal(t, "the friday one", text)
		assert.Equal(t, types.ConflictBusy, cands[0].ConflictState)
		return 1, nil
	}
	session := connect(t, deps)

	candidates := []tool.CandidateCheck{
		{DisplayText: "Thu 10am", ConflictState: "busy"},
		{DisplayText: "Fri 2pm", ConflictState: "free"},
	}
	var resp tool.InterpretReplyResponse
	require.Empty(t, call(t, session, "interpret_reply", tool.InterpretReplyRequest{Reply: "the friday one", Candidates: candidates}, &resp))
	assert.Equal(t, 1, resp.Index)
	assert.Equal(t, "Fri 2pm", resp.Chosen.DisplayText)

	errText := call(t, session, "interpret_reply", tool.InterpretReplyRequest{Reply: "ok", Candidates: []tool.CandidateCheck{}}, &resp)
	assert.Contains(t, errText, "validation error")
}

func TestCheckExistingInvite(t *testing.T) {
	deps := defaultDeps()
	deps.Invites.(*inviteMock).CheckExistingInviteFunc = func(_ context.Context, a *types.ThreadAnalysis) types.InviteCheckResult {
		assert.Equal(t, types.StatusAgreementReached, a.Status)
		assert.Equal(t, "2026-10-15T10:00:00-04:00", a.AgreedTime.StartISO)
		return types.InviteCheckResult{AlreadyScheduled: true, EventRef: "evt-7", Method: types.MethodParticipantMatch}
	}
	session := connect(t, deps)

	var resp tool.InviteCheck
	require.Empty(t, call(t, session, "check_existing_invite", tool.CheckExistingInviteRequest{Analysis: tool.Analysis{
		Status:            "agreement_reached",
		AgreedTime:        &tool.AgreedTime{StartISO: "2026-10-15T10:00:00-04:00", EndISO: "2026-10-15T10:30:00-04:00"},
		ParticipantEmails: []string{"ann@example.com"},
	}}, &resp))
	assert.Equal(t, tool.InviteCheck{AlreadyScheduled: true, EventRef: "evt-7", Method: "participant_match"}, resp)

	errText := call(t, session, "check_existing_invite", tool.CheckExistingInviteRequest{Analysis: tool.Analysis{Status: "maybe"}}, &resp)
	assert.Contains(t, errText, "validation error")
}

func TestAnalyzeThread(t *testing.T) {
	deps := defaultDeps()
	deps.Classifier.(*classifierMock).ClassifyFunc = func(_ context.Context, req classifier.Request) (*types.ThreadAnalysis, error) {
		assert.Equal(t, "Intro call", req.Subject)
		assert.Contains(t, req.Transcript, "10am works")
		assert.True(t, req.Today.Equal(now))
		return &types.ThreadAnalysis{
			Status:        types.StatusAgreementReached,
			AgreedTime:    &types.AgreedTime{StartISO: "2026-10-15T10:00:00-04:00", EndISO: "2026-10-15T10:30:00-04:00"},
			ProposedTimes: []types.ProposedTime{{ProposedBy: "counterpart", DisplayText: "Thu 10am"}},
			MeetingTitle:  "Intro call",
		}, nil
	}
	session := connect(t, deps)

	var resp tool.AnalyzeThreadResponse
	require.Empty(t, call(t, session, "analyze_thread", tool.AnalyzeThreadRequest{ThreadID: "t1"}, &resp))
	assert.Equal(t, "t1", resp.ThreadID)
	assert.Equal(t, 3, resp.MessageCount)
	assert.Equal(t, "agreement_reached", resp.Analysis.Status)
	require.NotNil(t, resp.Analysis.AgreedTime)
	assert.Equal(t, "2026-10-15T10:30:00-04:00", resp.Analysis.AgreedTime.EndISO)
	assert.Equal(t, []tool.Candidate{{ProposedBy: "counterpart", DisplayText: "Thu 10am"}}, resp.Analysis.ProposedTimes)

	errText := call(t, session, "analyze_thread", tool.AnalyzeThreadRequest{ThreadID: "missing"}, &resp)
	assert.Contains(t, errText, "404 thread not found")
}

func TestSendReply(t *testing.T) {
	deps := defaultDeps()
	mail := deps.Mail.(*mailMock)
	var gotMessage, gotBody string
	mail.SendReplyFunc = func(_ context.Context, _ *types.Thread, messageID, body string) error {
		gotMessage, gotBody = messageID, body
		return nil
	}
	session := connect(t, deps)

	var resp tool.SendReplyResponse
	require.Empty(t, call(t, session, "send_reply", tool.SendReplyRequest{ThreadID: "t1", Body: "See you then."}, &resp))
	assert.Equal(t, tool.SendReplyResponse{ThreadID: "t1", MessageID: "m3", Sent: true}, resp)
	assert.Equal(t, "m3", gotMessage, "defaults to the latest counterpart message")
	assert.Equal(t, "See you then.", gotBody)

	require.Empty(t, call(t, session, "send_reply", tool.SendReplyRequest{ThreadID: "t1", MessageID: "m1", Body: "Hi"}, &resp))
	assert.Equal(t, "m1", gotMessage)
	assert.Equal(t, 2, mail.sendCalls)
}

func TestSendReplyValidation(t *testing.T) {
	deps := defaultDeps()
	mail := deps.Mail.(*mailMock)
	session := connect(t, deps)

	var resp tool.SendReplyResponse
	errText := call(t, session, "send_reply", tool.SendReplyRequest{ThreadID: "t1", Body: "   "}, &resp)
	assert.Contains(t, errText, "reply body is empty")

	errText = call(t, session, "send_reply", tool.SendReplyRequest{Body: "hello"}, &resp)
	assert.Contains(t, errText, "thread_id is required")
	assert.Zero(t, mail.sendCalls)

	mail.GetThreadFunc = func(context.Context, string) (*types.Thread, error) {
		return &types.Thread{ID: "t2", Messages: []types.Message{{ID: "m1", From: owner}}}, nil
	}
	errText = call(t, session, "send_reply", tool.SendReplyRequest{ThreadID: "t2", Body: "hello"}, &resp)
	assert.Contains(t, errText, "no message to answer")
	assert.Zero(t, mail.sendCalls)
}

func TestBookMeeting(t *testing.T) {
	deps := defaultDeps()
	deps.Booker.(*bookerMock).BookFunc = func(_ context.Context, a *types.ThreadAnalysis) (invite.BookResult, error) {
		if a.AgreedTime == nil {
			return invite.BookResult{}, types.ErrValidation
		}
		assert.Equal(t, "Intro call", a.MeetingTitle)
		return invite.BookResult{EventRef: "evt-9", Created: true, Existing: types.InviteCheckResult{Method: types.MethodNotFound}}, nil
	}
	session := connect(t, deps)

	var resp tool.BookMeetingResponse
	require.Empty(t, call(t, session, "book_meeting", tool.BookMeetingRequest{Analysis: tool.Analysis{
		Status:       "agreement_reached",
		AgreedTime:   &tool.AgreedTime{StartISO: "2026-10-15T10:00:00-04:00", EndISO: "2026-10-15T10:30:00-04:00"},
		MeetingTitle: "Intro call",
	}}, &resp))
	assert.Equal(t, tool.BookMeetingResponse{
		EventRef: "evt-9",
		Created:  true,
		Existing: tool.InviteCheck{Method: "not_found"},
	}, resp)

	errText := call(t, session, "book_meeting", tool.BookMeetingRequest{Analysis: tool.Analysis{MeetingTitle: "x"}}, &resp)
	assert.Contains(t, errText, "validation error")
}

func TestRunAutoProcess(t *testing.T) {
	deps := defaultDeps()
	calls := 0
	deps.Auto.(*autoMock).RunFunc = func(context.Context) (autoprocess.Report, error) {
		calls++
		if calls == 2 {
			return autoprocess.Report{}, types.ErrRunInProgress
		}
		return autoprocess.Report{
			RunID:      "run-1",
			StartedAt:  now,
			FinishedAt: now.Add(time.Second),
			Captured:   1,
			Replied:    1,
			Outcomes: []autoprocess.Outcome{
				{ThreadID: "t1", Pass: autoprocess.PassCapture, Status: "inbound_request", Action: autoprocess.ActionReplied},
			},
		}, nil
	}
	session := connect(t, deps)

	var resp tool.RunAutoProcessResponse
	require.Empty(t, call(t, session, "run_auto_process", map[string]any{}, &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "2026-10-14T13:00:00Z", resp.StartedAt)
	assert.Equal(t, 1, resp.Replied)
	assert.Equal(t, []tool.ThreadOutcome{
		{ThreadID: "t1", Pass: "capture", Status: "inbound_request", Action: "replied"},
	}, resp.Outcomes)

	errText := call(t, session, "run_auto_process", map[string]any{}, &resp)
	assert.Contains(t, errText, "run already in progress")
}
