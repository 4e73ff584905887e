// Package interpret maps a free-form user reply onto one of the offered
// candidate times.
package interpret

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

type candidateChooser interface {
	ChooseCandidate(ctx context.Context, text string, candidates []types.ProposedTimeCheck) (int, error)
}

var affirmatives = map[string]struct{}{
	"ok":                {},
	"okay":              {},
	"k":                 {},
	"sure":              {},
	"yes":               {},
	"yep":               {},
	"yeah":              {},
	"sounds good":       {},
	"that works":        {},
	"works for me":      {},
	"that works for me": {},
	"perfect":           {},
	"great":             {},
	"fine":              {},
	"good":              {},
	"looks good":        {},
	"confirmed":         {},
	"confirm":           {},
	"go ahead":          {},
	"book it":           {},
	"do it":             {},
}

// NewInterpreter creates an interpreter. chooser may be nil, in which case
// every answer goes through the affirmative rule.
func NewInterpreter(chooser candidateChooser, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{chooser: chooser, logger: logger}
}

// Interpreter selects a candidate index from a reply.
type Interpreter struct {
	chooser candidateChooser
	logger  *zap.Logger
}

// Interpret returns the zero-based index of the chosen candidate. Generic
// agreement picks the first free candidate, or the first one when none is
// free. Classifier failures fall back to the same rule.
func (in *Interpreter) Interpret(ctx context.Context, text string, candidates []types.ProposedTimeCheck) (int, error) {
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: no candidates to choose from", types.ErrValidation)
	}

	if IsAffirmative(text) || in.chooser == nil {
		return firstFree(candidates), nil
	}

	idx, err := in.chooser.ChooseCandidate(ctx, text, candidates)
	if err != nil {
		in.logger.Warn("candidate choice failed, using first free", zap.Error(err))
		return firstFree(candidates), nil
	}
	if idx < 0 || idx >= len(candidates) {
		in.logger.Warn("candidate choice out of range, using first free",
			zap.Int("index", idx),
			zap.Int("candidates", len(candidates)),
		)
		return firstFree(candidates), nil
	}

	return idx, nil
}

// IsAffirmative reports whether text is empty or a generic agreement.
func IsAffirmative(text string) bool {
	norm := strings.ToLower(strings.TrimSpace(text))
	norm = strings.TrimRight(norm, ".! ")
	if norm == "" {
		return true
	}
	_, ok := affirmatives[strings.Join(strings.Fields(norm), " ")]
	return ok
}

func firstFree(candidates []types.ProposedTimeCheck) int {
	for i, c := range candidates {
		if c.ConflictState == types.ConflictFree {
			return i
		}
	}
	return 0
}
