// Package classifier asks a language model to read scheduling threads and to
// pick among candidate times.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// Request is the input of one thread classification.
type Request struct {
	Transcript          string
	Subject             string
	HasAttachmentSignal bool
	Today               time.Time
}

// Classifier reads threads and replies.
type Classifier interface {
	Classify(ctx context.Context, req Request) (*types.ThreadAnalysis, error)
	ChooseCandidate(ctx context.Context, text string, candidates []types.ProposedTimeCheck) (int, error)
}

type textGenerator interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// New creates a classifier over a text generator.
func New(gen textGenerator, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Model{gen: gen, logger: logger}
}

// Model implements Classifier with prompts sent to a text generator.
type Model struct {
	gen    textGenerator
	logger *zap.Logger
}

func (m *Model) Classify(ctx context.Context, req Request) (*types.ThreadAnalysis, error) {
	raw, err := m.gen.GenerateText(ctx, classifySystemPrompt(), classifyPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("classifier.GenerateText failed: %w", err)
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		m.logger.Warn("unusable classification", zap.Error(err), zap.Int("response_bytes", len(raw)))
		return nil, err
	}

	m.logger.Debug("thread classified",
		zap.String("status", analysis.Status.String()),
		zap.Int("proposed_times", len(analysis.ProposedTimes)),
	)
	return analysis, nil
}

func (m *Model) ChooseCandidate(ctx context.Context, text string, candidates []types.ProposedTimeCheck) (int, error) {
	raw, err := m.gen.GenerateText(ctx, chooseSystemPrompt, choosePrompt(text, candidates))
	if err != nil {
		return 0, fmt.Errorf("classifier.GenerateText failed: %w", err)
	}
	return ParseIndex(raw)
}

// ParseAnalysis decodes a classification. When the strict decode fails, the
// first balanced JSON object in raw is tried once before giving up.
func ParseAnalysis(raw string) (*types.ThreadAnalysis, error) {
	analysis, err := decodeAnalysis(raw)
	if err != nil {
		obj := ExtractJSONObject(raw)
		if obj == "" {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
		}
		if analysis, err = decodeAnalysis(obj); err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
		}
	}

	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedResponse, err)
	}
	return analysis, nil
}

func decodeAnalysis(s string) (*types.ThreadAnalysis, error) {
	var head struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal([]byte(s), &head); err != nil {
		return nil, err
	}
	if head.Status == nil {
		return nil, fmt.Errorf("status field missing")
	}

	var analysis types.ThreadAnalysis
	if err := json.Unmarshal([]byte(s), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ParseIndex decodes a candidate choice: {"index": n} or a bare integer.
func ParseIndex(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n, nil
	}

	var choice struct {
		Index *int `json:"index"`
	}
	err := json.Unmarshal([]byte(trimmed), &choice)
	if err != nil || choice.Index == nil {
		obj := ExtractJSONObject(trimmed)
		if obj == "" {
			return 0, fmt.Errorf("%w: no index in %q", types.ErrMalformedResponse, trimmed)
		}
		choice.Index = nil
		if err := json.Unmarshal([]byte(obj), &choice); err != nil || choice.Index == nil {
			return 0, fmt.Errorf("%w: no index in %q", types.ErrMalformedResponse, trimmed)
		}
	}
	return *choice.Index, nil
}

// ExtractJSONObject returns the first balanced {...} in s, ignoring braces
// inside string literals, or "" when there is none.
func ExtractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
