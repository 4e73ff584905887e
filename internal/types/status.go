// Package types defines the records shared by the scheduling engine and its
// collaborators.
package types

import (
	"fmt"
)

// Status is the classifier's verdict about a thread's scheduling phase.
type Status int

const (
	StatusNotScheduling Status = iota
	StatusInboundRequest
	StatusNoAgreement
	StatusUserPromisedTimes
	StatusAwaitingResponse
	StatusAgreementReached
	StatusAlreadyScheduled
)

// Statuses lists every Status in declaration order.
var Statuses = []Status{
	StatusNotScheduling,
	StatusInboundRequest,
	StatusNoAgreement,
	StatusUserPromisedTimes,
	StatusAwaitingResponse,
	StatusAgreementReached,
	StatusAlreadyScheduled,
}

func (s Status) String() string {
	switch s {
	case StatusNotScheduling:
		return "not_scheduling"
	case StatusInboundRequest:
		return "inbound_request"
	case StatusNoAgreement:
		return "no_agreement"
	case StatusUserPromisedTimes:
		return "user_promised_times"
	case StatusAwaitingResponse:
		return "awaiting_response"
	case StatusAgreementReached:
		return "agreement_reached"
	case StatusAlreadyScheduled:
		return "already_scheduled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus maps the wire name of a status to its value.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusNotScheduling, StatusInboundRequest, StatusNoAgreement,
		StatusUserPromisedTimes, StatusAwaitingResponse, StatusAgreementReached,
		StatusAlreadyScheduled:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown status %d", int(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
