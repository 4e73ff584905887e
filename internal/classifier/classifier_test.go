package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-scheduler/internal/classifier"
	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type generatorMock struct {
	GenerateTextFunc func(ctx context.Context, system, prompt string) (string, error)
}

func (m *generatorMock) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	return m.GenerateTextFunc(ctx, system, prompt)
}

func respond(raw string) *generatorMock {
	return &generatorMock{GenerateTextFunc: func(context.Context, string, string) (string, error) {
		return raw, nil
	}}
}

func TestParseAnalysis(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		expected types.Status
		wantErr  bool
	}{
		{
			name:     "strict json",
			raw:      `{"status":"inbound_request","duration_minutes":45}`,
			expected: types.StatusInboundRequest,
		},
		{
			name:     "fenced with prose",
			raw:      "Sure! Here it is:\n```json\n{\"status\":\"no_agreement\",\"meeting_title\":\"a {tricky} title\"}\n```",
			expected: types.StatusNoAgreement,
		},
		{
			name: "agreement with bounds",
			raw: `{"status":"agreement_reached","agreed_time":{"start_iso":"2026-10-19T14:00:00Z",` +
				`"end_iso":"2026-10-19T14:30:00Z"}}`,
			expected: types.StatusAgreementReached,
		},
		{name: "agreement without end", raw: `{"status":"agreement_reached","agreed_time":{"start_iso":"2026-10-19T14:00:00Z"}}`, wantErr: true},
		{name: "unknown status", raw: `{"status":"maybe"}`, wantErr: true},
		{name: "missing status", raw: `{"meeting_title":"Sync"}`, wantErr: true},
		{name: "not json", raw: "I could not read this thread.", wantErr: true},
		{name: "unbalanced", raw: `{"status":"inbound_request"`, wantErr: true},
		{name: "negative duration", raw: `{"status":"inbound_request","duration_minutes":-5}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := classifier.ParseAnalysis(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, types.ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got.Status)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a":"}"}`, classifier.ExtractJSONObject(`noise {"a":"}"} trailing }`))
	assert.Equal(t, `{"a":{"b":"\"{"}}`, classifier.ExtractJSONObject(`{"a":{"b":"\"{"}}`))
	assert.Empty(t, classifier.ExtractJSONObject("no object"))
}

func TestParseIndex(t *testing.T) {
	n, err := classifier.ParseIndex(" 2 ")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = classifier.ParseIndex(`{"index": 1}`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = classifier.ParseIndex("The answer is {\"index\": 0}.")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = classifier.ParseIndex(`{"choice": 1}`)
	require.ErrorIs(t, err, types.ErrMalformedResponse)
}

func TestClassify(t *testing.T) {
	today := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	var gotSystem, gotPrompt string
	gen := &generatorMock{GenerateTextFunc: func(_ context.Context, system, prompt string) (string, error) {
		gotSystem, gotPrompt = system, prompt
		return `{"status":"already_scheduled","calendar_invite_sent_signal":true}`, nil
	}}

	analysis, err := classifier.New(gen, nil).Classify(context.Background(), classifier.Request{
		Transcript:          "From: ann@example.com\n\nInvite sent!",
		Subject:             "Coffee",
		HasAttachmentSignal: true,
		Today:               today,
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusAlreadyScheduled, analysis.Status)
	assert.True(t, analysis.CalendarInviteSentSignal)

	assert.Contains(t, gotSystem, "user_promised_times")
	assert.Contains(t, gotPrompt, "Wednesday, October 14, 2026")
	assert.Contains(t, gotPrompt, "Subject: Coffee")
	assert.Contains(t, gotPrompt, "calendar invite attachment")
	assert.Contains(t, gotPrompt, "Invite sent!")
}

func TestClassifyErrors(t *testing.T) {
	_, err := classifier.New(respond("nope"), nil).Classify(context.Background(), classifier.Request{})
	require.ErrorIs(t, err, types.ErrMalformedResponse)

	gen := &generatorMock{GenerateTextFunc: func(context.Context, string, string) (string, error) {
		return "", errors.New("429 resource exhausted")
	}}
	_, err = classifier.New(gen, nil).Classify(context.Background(), classifier.Request{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrMalformedResponse)
	assert.Contains(t, err.Error(), "429")
}

func TestChooseCandidate(t *testing.T) {
	var gotPrompt string
	gen := &generatorMock{GenerateTextFunc: func(_ context.Context, _, prompt string) (string, error) {
		gotPrompt = prompt
		return `{"index":1}`, nil
	}}
	candidates := []types.ProposedTimeCheck{
		{ProposedTime: types.ProposedTime{DisplayText: "Mon 10am"}, Label: "Conflict"},
		{ProposedTime: types.ProposedTime{DisplayText: "Tue 2pm"}, Label: "Available"},
	}

	idx, err := classifier.New(gen, nil).ChooseCandidate(context.Background(), "tuesday works", candidates)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, gotPrompt, "1. Tue 2pm (Available)")
	assert.Contains(t, gotPrompt, "Reply: tuesday works")
}
