package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-scheduler/internal/ledger"
)

type storeMock struct {
	LoadLedgerFunc func(ctx context.Context) ([]string, error)
	SaveLedgerFunc func(ctx context.Context, ids []string) error
}

func (m *storeMock) LoadLedger(ctx context.Context) ([]string, error) {
	return m.LoadLedgerFunc(ctx)
}

func (m *storeMock) SaveLedger(ctx context.Context, ids []string) error {
	return m.SaveLedgerFunc(ctx, ids)
}

func TestMarkProcessed(t *testing.T) {
	l := ledger.New(0)

	l.MarkProcessed("a")
	l.MarkProcessed("b")
	l.MarkProcessed("a")

	assert.Equal(t, []string{"b", "a"}, l.IDs())
	assert.True(t, l.Contains("a"))
	assert.False(t, l.Contains("A"))
	assert.False(t, l.Contains(""))
}

func TestCapacityEviction(t *testing.T) {
	l := ledger.New(ledger.DefaultCapacity)
	for i := 0; i <= ledger.DefaultCapacity; i++ {
		l.MarkProcessed(fmt.Sprintf("t%03d", i))
	}

	require.Equal(t, ledger.DefaultCapacity, l.Len())
	assert.False(t, l.Contains("t000"), "oldest id is evicted")
	assert.True(t, l.Contains("t001"))
	assert.Equal(t, "t150", l.IDs()[0])
	assert.Equal(t, "t001", l.IDs()[ledger.DefaultCapacity-1])
}

func TestIDsIsCopy(t *testing.T) {
	l := ledger.New(3)
	l.MarkProcessed("x")

	ids := l.IDs()
	ids[0] = "mutated"
	assert.Equal(t, []string{"x"}, l.IDs())
}

func TestLoadAndSave(t *testing.T) {
	var saved []string
	store := &storeMock{
		LoadLedgerFunc: func(context.Context) ([]string, error) {
			return []string{"c", "b", "b", "a"}, nil
		},
		SaveLedgerFunc: func(_ context.Context, ids []string) error {
			saved = ids
			return nil
		},
	}

	l, err := ledger.Load(context.Background(), store, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, l.IDs())

	l.MarkProcessed("d")
	require.NoError(t, l.Save(context.Background(), store))
	assert.Equal(t, []string{"d", "c"}, saved)
}

func TestLoadError(t *testing.T) {
	store := &storeMock{
		LoadLedgerFunc: func(context.Context) ([]string, error) {
			return nil, errors.New("disk I/O error")
		},
	}

	_, err := ledger.Load(context.Background(), store, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.LoadLedger failed")
}
