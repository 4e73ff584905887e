package labels

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sync"

	"google.golang.org/api/googleapi"

	"github.com/hal9000y/gmail-scheduler/internal/types"
)

// DefaultPrefix is the parent label of every marker label.
const DefaultPrefix = "Scheduler"

type labelSvc interface {
	ListLabels(ctx context.Context) (map[string]string, error)
	CreateLabel(ctx context.Context, name string) (string, error)
	ModifyThreadLabels(ctx context.Context, threadID string, add, remove []string) error
	ThreadLabelIDs(ctx context.Context, threadID string) ([]string, error)
	ThreadsWithLabel(ctx context.Context, labelID string, limit int) ([]string, error)
}

// NewGmail creates a Store backed by Gmail user labels named
// "<prefix>/<marker>".
func NewGmail(svc labelSvc, prefix string) *Gmail {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Gmail{svc: svc, prefix: prefix}
}

// Gmail persists markers as Gmail labels. Labels are created on first use.
// Label ids are cached once every marker label is known; a partial cache is
// re-listed on each lookup so labels created elsewhere become visible.
type Gmail struct {
	svc    labelSvc
	prefix string

	mu  sync.Mutex
	ids map[types.Marker]string
}

// LabelName returns the Gmail label name for m.
func (g *Gmail) LabelName(m types.Marker) string {
	return g.prefix + "/" + string(m)
}

func (g *Gmail) Markers(ctx context.Context, threadID string) ([]types.Marker, error) {
	ids, err := g.labelIDs(ctx, false)
	if err != nil {
		return nil, err
	}

	onThread, err := g.svc.ThreadLabelIDs(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("svc.ThreadLabelIDs failed: %w", err)
	}
	present := make(map[string]struct{}, len(onThread))
	for _, id := range onThread {
		present[id] = struct{}{}
	}

	var out []types.Marker
	for _, m := range types.Markers {
		if id, ok := ids[m]; ok {
			if _, ok := present[id]; ok {
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func (g *Gmail) AddMarker(ctx context.Context, threadID string, m types.Marker) error {
	ids, err := g.labelIDs(ctx, true)
	if err != nil {
		return err
	}
	if err := g.svc.ModifyThreadLabels(ctx, threadID, []string{ids[m]}, nil); err != nil {
		g.forgetIfMissing(m, err)
		return fmt.Errorf("svc.ModifyThreadLabels failed: %w", err)
	}
	return nil
}

func (g *Gmail) RemoveMarker(ctx context.Context, threadID string, m types.Marker) error {
	ids, err := g.labelIDs(ctx, false)
	if err != nil {
		return err
	}
	id, ok := ids[m]
	if !ok {
		return nil
	}
	if err := g.svc.ModifyThreadLabels(ctx, threadID, nil, []string{id}); err != nil {
		g.forgetIfMissing(m, err)
		return fmt.Errorf("svc.ModifyThreadLabels failed: %w", err)
	}
	return nil
}

func (g *Gmail) ThreadsWithMarker(ctx context.Context, m types.Marker, limit int) ([]string, error) {
	ids, err := g.labelIDs(ctx, false)
	if err != nil {
		return nil, err
	}
	id, ok := ids[m]
	if !ok {
		return nil, nil
	}

	threads, err := g.svc.ThreadsWithLabel(ctx, id, limit)
	if err != nil {
		g.forgetIfMissing(m, err)
		return nil, fmt.Errorf("svc.ThreadsWithLabel failed: %w", err)
	}
	return threads, nil
}

// labelIDs resolves marker label ids, creating missing labels when create
// is set.
func (g *Gmail) labelIDs(ctx context.Context, create bool) (map[types.Marker]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.ids) == len(types.Markers) {
		return maps.Clone(g.ids), nil
	}
	existing, err := g.svc.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("svc.ListLabels failed: %w", err)
	}
	ids := make(map[types.Marker]string, len(types.Markers))
	for _, m := range types.Markers {
		if id, ok := existing[g.LabelName(m)]; ok {
			ids[m] = id
		}
	}
	g.ids = ids
	if !create {
		return maps.Clone(g.ids), nil
	}

	for _, m := range types.Markers {
		if _, ok := g.ids[m]; ok {
			continue
		}
		id, err := g.svc.CreateLabel(ctx, g.LabelName(m))
		if err != nil {
			return nil, fmt.Errorf("svc.CreateLabel failed: %w", err)
		}
		g.ids[m] = id
	}
	return maps.Clone(g.ids), nil
}

// forgetIfMissing drops the cached id of m when Gmail no longer knows it,
// so the next lookup lists labels again.
func (g *Gmail) forgetIfMissing(m types.Marker, err error) {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.ids, m)
}
