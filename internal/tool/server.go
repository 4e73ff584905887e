package tool

import (
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type slotsSvc interface {
	freeSlotsSvc
	proposedTimesSvc
}

type mailSvc interface {
	threadGetter
	sendReplySvc
}

// Deps are the collaborators behind the scheduling tools.
type Deps struct {
	Slots       slotsSvc
	Interpreter replyInterpreter
	Invites     inviteChecker
	Booker      meetingBooker
	Mail        mailSvc
	Classifier  threadClassifier
	Auto        autoRunner
	Timezone    string
	Now         func() time.Time
}

// NewServer creates an MCP server with scheduling tools. Only
// run_auto_process takes the run lock or touches the ledger.
func NewServer(deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-scheduler", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_free_slots",
		Description: "Find free business-hours windows in the owner's calendar",
	}, NewFindFreeSlots(deps.Slots, deps.Timezone, deps.Now).FindFreeSlots)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_proposed_times",
		Description: "Check whether proposed meeting times conflict with the calendar",
	}, NewCheckProposedTimes(deps.Slots).CheckProposedTimes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "interpret_reply",
		Description: "Map a free-form reply onto one of the checked candidate times",
	}, NewInterpretReply(deps.Interpreter).InterpretReply)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_existing_invite",
		Description: "Check whether the agreed meeting already has a calendar event",
	}, NewCheckExistingInvite(deps.Invites).CheckExistingInvite)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_thread",
		Description: "Classify the scheduling status of a Gmail thread",
	}, NewAnalyzeThread(deps.Mail, deps.Classifier, deps.Now).AnalyzeThread)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_reply",
		Description: "Send a plain-text reply within a Gmail thread",
	}, NewSendReply(deps.Mail).SendReply)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "book_meeting",
		Description: "Create a calendar invite for the agreed time unless one already exists",
	}, NewBookMeeting(deps.Booker).BookMeeting)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_auto_process",
		Description: "Run one unattended capture and resolution pass over the mailbox",
	}, NewRunAutoProcess(deps.Auto).RunAutoProcess)

	return server
}
