package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

func TestStatusJSON(t *testing.T) {
	for _, st := range types.Statuses {
		t.Run(st.String(), func(t *testing.T) {
			raw, err := json.Marshal(types.ThreadAnalysis{Status: st})
			require.NoError(t, err)

			var got types.ThreadAnalysis
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, st, got.Status)
		})
	}

	var a types.ThreadAnalysis
	err := json.Unmarshal([]byte(`{"status":"maybe_later"}`), &a)
	require.Error(t, err)
}

func TestThreadAnalysisValidate(t *testing.T) {
	cases := []struct {
		name    string
		in      types.ThreadAnalysis
		wantErr bool
	}{
		{
			name: "inbound request",
			in:   types.ThreadAnalysis{Status: types.StatusInboundRequest},
		},
		{
			name: "agreement with bounds",
			in: types.ThreadAnalysis{
				Status:     types.StatusAgreementReached,
				AgreedTime: &types.AgreedTime{StartISO: "2026-10-19T10:00:00Z", EndISO: "2026-10-19T10:30:00Z"},
			},
		},
		{
			name:    "agreement without agreed time",
			in:      types.ThreadAnalysis{Status: types.StatusAgreementReached},
			wantErr: true,
		},
		{
			name: "agreement missing end",
			in: types.ThreadAnalysis{
				Status:     types.StatusAgreementReached,
				AgreedTime: &types.AgreedTime{StartISO: "2026-10-19T10:00:00Z"},
			},
			wantErr: true,
		},
		{
			name:    "unknown status value",
			in:      types.ThreadAnalysis{Status: types.Status(42)},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAgreedTimeBounds(t *testing.T) {
	at := &types.AgreedTime{
		StartISO: "2026-10-19T10:00:00",
		EndISO:   "2026-10-19T10:45:00",
		Timezone: "America/New_York",
	}
	start, end, err := at.Bounds()
	require.NoError(t, err)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2026, 10, 19, 10, 0, 0, 0, ny)))
	assert.Equal(t, 45*time.Minute, end.Sub(start))

	_, _, err = (&types.AgreedTime{StartISO: "tomorrow", EndISO: "later"}).Bounds()
	require.Error(t, err)
}

func TestCounterpartReplied(t *testing.T) {
	owner := "Me <me@example.com>"
	cases := []struct {
		name     string
		from     []string
		expected bool
	}{
		{name: "only owner", from: []string{"me@example.com"}, expected: false},
		{name: "owner last", from: []string{"Ann <ann@example.com>", "ME@example.com"}, expected: false},
		{name: "reply after owner", from: []string{"ann@example.com", "me@example.com", "Ann <ann@example.com>"}, expected: true},
		{name: "no owner message", from: []string{"ann@example.com"}, expected: true},
		{name: "empty thread", from: nil, expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			th := &types.Thread{}
			for _, f := range tc.from {
				th.Messages = append(th.Messages, types.Message{From: f})
			}
			assert.Equal(t, tc.expected, th.CounterpartReplied(owner))
		})
	}
}

func TestParticipants(t *testing.T) {
	a := types.ThreadAnalysis{ParticipantEmails: []string{"Ann@Example.com", "ann@example.com", " me@example.com ", "bob@example.com", ""}}
	assert.Equal(t, []string{"ann@example.com", "bob@example.com"}, a.Participants("me@example.com"))
}
