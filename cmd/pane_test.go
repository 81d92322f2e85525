package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/byxorna/orderpane/pkg/config"
	"github.com/byxorna/orderpane/pkg/db"
	"github.com/byxorna/orderpane/pkg/db/fs"
	"github.com/byxorna/orderpane/pkg/pane"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func cities(t *testing.T) (*pane.Controller, *notices, *fs.Store) {
	t.Helper()
	store, err := fs.New(t.TempDir()+"/dataset.yaml", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Seed(context.Background(), []v1.Record{
		{ID: "oslo", Type: "city", Rank: "r00000000", Fields: map[string]any{"name": "Oslo"}},
		{ID: "drafts.bergen", Type: "city", Rank: "r00000001", Fields: map[string]any{"name": "Bergen"}},
		{ID: "bergen", Type: "city", Rank: "r00000001", Fields: map[string]any{"name": "Bergen"}},
		{ID: "tromso", Type: "city", Rank: "r00000002", Fields: map[string]any{"name": "Tromsø"}},
		{ID: "trondheim", Type: "city", Fields: map[string]any{"name": "Trondheim"}},
	}))

	cfg, err := pane.FromSettings(config.Pane{Type: "city", Title: "Cities", LabelField: "name"})
	require.NoError(t, err)
	n := &notices{}
	c := pane.New(cfg, store, n, nil, nil)
	c.Run(context.Background(), c.Refresh())
	require.Equal(t, pane.Ready, c.State())
	return c, n, store
}

func TestResolve(t *testing.T) {
	c, _, _ := cities(t)

	r, err := resolve(c, "oslo")
	require.NoError(t, err)
	assert.Equal(t, "oslo", r.ID)

	r, err = resolve(c, "bergen")
	require.NoError(t, err)
	assert.Equal(t, "drafts.bergen", r.ID, "published id finds the shown draft")

	r, err = resolve(c, "Trondh")
	require.NoError(t, err)
	assert.Equal(t, "trondheim", r.ID)

	_, err = resolve(c, "xyz")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCommitPrintsOrder(t *testing.T) {
	c, n, store := cities(t)

	var out bytes.Buffer
	require.NoError(t, commit(context.Background(), &out, c, n, c.Move("oslo", 1)))
	assert.Contains(t, out.String(), "Cities reordered successfully.")
	assert.Contains(t, out.String(), "drafts.bergen*")

	records, err := store.Fetch(context.Background(), db.Query{Type: "city"})
	require.NoError(t, err)
	ranks := map[string]string{}
	for _, r := range records {
		ranks[r.ID] = r.Rank
	}
	// unranked records lead, so trondheim keeps the top spot
	assert.Equal(t, map[string]string{
		"trondheim":     "r00000000",
		"bergen":        "r00000001",
		"drafts.bergen": "r00000001",
		"oslo":          "r00000002",
		"tromso":        "r00000003",
	}, ranks)

	out.Reset()
	require.NoError(t, commit(context.Background(), &out, c, n, nil))
	assert.Contains(t, out.String(), "unchanged")
}
