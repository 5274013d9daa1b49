package sacco_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/saccoterm/internal/sacco"
)

// fakeAPI serves canned responses keyed by path.
type fakeAPI struct {
	responses map[string]any
}

func (f *fakeAPI) Get(_ context.Context, path string, out any) error {
	data, err := json.Marshal(f.responses[path])
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

func (f *fakeAPI) Post(_ context.Context, path string, _, out any) error {
	return f.Get(context.Background(), path, out)
}

func (f *fakeAPI) Put(_ context.Context, path string, _, out any) error {
	return f.Get(context.Background(), path, out)
}

func TestSelectionLoadPicksFirst(t *testing.T) {
	api := &fakeAPI{responses: map[string]any{
		"saccos/": []sacco.Sacco{
			{ID: 10, Name: "Umoja Growers"},
			{ID: 20, Name: "Harambee Traders"},
		},
	}}

	sel := sacco.NewSelection(sacco.NewService(api))
	assert.Zero(t, sel.CurrentID())

	saccos, err := sel.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, saccos, 2)
	assert.Equal(t, int64(10), sel.CurrentID())

	// Reloading does not steal an explicit choice.
	require.True(t, sel.Select(20))
	_, err = sel.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(20), sel.CurrentID())
}

func TestSelectionSelectUnknown(t *testing.T) {
	api := &fakeAPI{responses: map[string]any{
		"saccos/": []sacco.Sacco{{ID: 10, Name: "Umoja Growers"}},
	}}

	sel := sacco.NewSelection(sacco.NewService(api))
	_, err := sel.Load(context.Background())
	require.NoError(t, err)

	assert.False(t, sel.Select(99))
	assert.Equal(t, int64(10), sel.CurrentID())
}

func TestSelectionAddBecomesCurrent(t *testing.T) {
	sel := sacco.NewSelection(sacco.NewService(&fakeAPI{}))

	sel.Add(sacco.Sacco{ID: 30, Name: "New Dawn"})

	require.NotNil(t, sel.Current())
	assert.Equal(t, "New Dawn", sel.Current().Name)
}

func TestSelectionClear(t *testing.T) {
	sel := sacco.NewSelection(sacco.NewService(&fakeAPI{}))
	sel.Add(sacco.Sacco{ID: 30})
	sel.Clear()

	assert.Nil(t, sel.Current())
	assert.Empty(t, sel.Saccos())
}
