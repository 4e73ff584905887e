package types

import "errors"

var (
	// ErrConfiguration indicates missing credentials or collaborators.
	ErrConfiguration = errors.New("configuration error")

	// ErrMalformedResponse indicates classifier output that does not match
	// the expected schema.
	ErrMalformedResponse = errors.New("malformed classifier response")

	// ErrValidation indicates caller input that cannot be acted on.
	ErrValidation = errors.New("validation error")

	// ErrRunInProgress indicates another invocation holds the run lock.
	ErrRunInProgress = errors.New("run already in progress")
)

// Settings is the per-invocation snapshot of user settings.
type Settings struct {
	AutoModeEnabled bool
	SignOffName     string
}
