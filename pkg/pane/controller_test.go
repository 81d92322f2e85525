package pane

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/byxorna/orderpane/pkg/config"
	"github.com/byxorna/orderpane/pkg/db"
	"github.com/byxorna/orderpane/pkg/nav"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	sync.Mutex
	docs      []v1.Record
	fetchErr  error
	commitErr error
	txs       []db.Transaction
}

func (f *fakeStore) Fetch(ctx context.Context, q db.Query) ([]v1.Record, error) {
	f.Lock()
	defer f.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]v1.Record(nil), f.docs...), nil
}

func (f *fakeStore) Commit(ctx context.Context, tx db.Transaction) error {
	f.Lock()
	defer f.Unlock()
	f.txs = append(f.txs, tx)
	return f.commitErr
}

type noticeLog []Notice

func (n *noticeLog) Notify(notice Notice) { *n = append(*n, notice) }

func projects() []v1.Record {
	return []v1.Record{
		{ID: "a", Type: "project", Rank: "r00000000", Fields: map[string]any{"name": "Ålesund"}},
		{ID: "drafts.b", Type: "project", Rank: "r00000001", Fields: map[string]any{"name": "Bergen (draft)"}},
		{ID: "b", Type: "project", Rank: "r00000001", Fields: map[string]any{"name": "Bergen"}},
		{ID: "c", Type: "project", Rank: "r00000002", Fields: map[string]any{"name": "Cairo", "slug": map[string]any{"current": "egypt"}}},
	}
}

func newController(t *testing.T, store *fakeStore) (*Controller, *noticeLog, *nav.Recorder) {
	t.Helper()
	cfg, err := FromSettings(config.Pane{
		Type:         "project",
		Title:        "Projects",
		LabelField:   "name",
		SearchFields: []string{"name", "slug"},
	})
	require.NoError(t, err)

	notices := &noticeLog{}
	rec := &nav.Recorder{}
	c := New(cfg, store, notices, rec, zap.NewNop())
	c.Run(context.Background(), c.Refresh())
	require.Equal(t, Ready, c.State())
	return c, notices, rec
}

func ids(records []v1.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestRefreshDedupes(t *testing.T) {
	c, _, _ := newController(t, &fakeStore{docs: projects()})
	assert.Equal(t, []string{"a", "drafts.b", "c"}, ids(c.Records()))
	assert.True(t, c.Records()[1].HasPublished)
	assert.False(t, c.LastSync().IsZero())
}

func TestRefreshError(t *testing.T) {
	store := &fakeStore{docs: projects()}
	c, _, _ := newController(t, store)

	store.fetchErr = errors.New("offline")
	c.Run(context.Background(), c.Refresh())
	assert.Equal(t, LoadError, c.State())
	assert.ErrorIs(t, c.Err(), ErrFetch)
	assert.False(t, c.CanReorder())
	assert.Equal(t, []string{"a", "drafts.b", "c"}, ids(c.Records()), "the last good list stays")

	store.fetchErr = nil
	c.Run(context.Background(), c.Refresh())
	assert.Equal(t, Ready, c.State())
	assert.NoError(t, c.Err())
}

func TestMoveCommitsAndNotifies(t *testing.T) {
	store := &fakeStore{docs: projects()}
	c, notices, _ := newController(t, store)

	task := c.Move("a", 1)
	require.NotNil(t, task)
	assert.Equal(t, Updating, c.State())
	assert.Equal(t, []string{"drafts.b", "a", "c"}, ids(c.Records()), "optimistic order")

	c.Run(context.Background(), task)
	assert.Equal(t, Ready, c.State())
	assert.Equal(t, []string{"drafts.b", "a", "c"}, ids(c.Records()))

	require.Len(t, store.txs, 1)
	tx := store.txs[0]
	assert.Equal(t, "orderable-pane.project.reorder", tx.Tag)
	assert.Equal(t, db.VisibilityAsync, tx.Visibility)
	expected := []v1.Patch{
		{TargetID: "drafts.b", Set: map[string]string{v1.RankField: "r00000000"}},
		{TargetID: "b", Set: map[string]string{v1.RankField: "r00000000"}},
		{TargetID: "a", Set: map[string]string{v1.RankField: "r00000001"}},
		{TargetID: "c", Set: map[string]string{v1.RankField: "r00000002"}},
	}
	if diff := cmp.Diff(expected, tx.Patches); diff != "" {
		t.Fatalf("unexpected patches (-want +got):\n%s", diff)
	}

	require.Len(t, *notices, 1)
	assert.Equal(t, NoticeSuccess, (*notices)[0].Level)
	assert.Equal(t, "Projects reordered successfully.", (*notices)[0].Description)
}

func TestReorderIsSingleFlight(t *testing.T) {
	store := &fakeStore{docs: projects()}
	c, _, _ := newController(t, store)

	first := c.Move("a", 1)
	require.NotNil(t, first)
	assert.Nil(t, c.Move("c", -1), "second reorder should be dropped")
	assert.Nil(t, c.Place(0, 2))
	assert.False(t, c.CanMove("c", -1))

	c.Run(context.Background(), first)
	assert.Len(t, store.txs, 1)
	assert.True(t, c.CanMove("c", -1))
}

func TestReorderFailureRollsBack(t *testing.T) {
	store := &fakeStore{docs: projects(), commitErr: errors.New("denied")}
	c, notices, _ := newController(t, store)
	before := ids(c.Records())

	c.Run(context.Background(), c.Place(0, 2))
	assert.Equal(t, before, ids(c.Records()))
	assert.Equal(t, Ready, c.State())
	require.Len(t, *notices, 1)
	assert.Equal(t, NoticeError, (*notices)[0].Level)
	assert.ErrorIs(t, (*notices)[0].Err, ErrWrite)
}

func TestReorderSkipsUnchanged(t *testing.T) {
	store := &fakeStore{docs: projects()}
	c, _, _ := newController(t, store)

	assert.Nil(t, c.Reorder(c.Records()))
	assert.Nil(t, c.Move("a", 0))
	assert.Nil(t, c.Move("a", -1))
	assert.Nil(t, c.Move("c", 1))
	assert.Nil(t, c.Move("missing", 1))
	assert.Empty(t, store.txs)
	assert.Equal(t, Ready, c.State())
}

func TestUnrankedListIsWrittenOnReorder(t *testing.T) {
	store := &fakeStore{docs: []v1.Record{
		{ID: "x", Type: "project"},
		{ID: "y", Type: "project"},
	}}
	c, _, _ := newController(t, store)

	// same order, but the ranks are new
	c.Run(context.Background(), c.Reorder(c.Records()))
	require.Len(t, store.txs, 1)
	assert.Len(t, store.txs[0].Patches, 2)
}

func TestFilter(t *testing.T) {
	c, _, _ := newController(t, &fakeStore{docs: projects()})

	c.SetFilter("ALE")
	assert.True(t, c.Filtering())
	assert.Equal(t, []string{"a"}, ids(c.Visible()), "diacritics are ignored")
	assert.False(t, c.CanReorder())
	assert.Nil(t, c.Move("a", 1))

	c.SetFilter("egypt")
	assert.Equal(t, []string{"c"}, ids(c.Visible()), "search fields beyond the label")

	c.SetFilter("  ")
	assert.False(t, c.Filtering())
	assert.Len(t, c.Visible(), 3)
	assert.True(t, c.CanReorder())
}

func TestFilterFallsBackToLabel(t *testing.T) {
	cfg, err := FromSettings(config.Pane{Type: "project", Title: "Projects", LabelField: "name"})
	require.NoError(t, err)
	c := New(cfg, &fakeStore{docs: projects()}, nil, nil, nil)
	c.Run(context.Background(), c.Refresh())

	c.SetFilter("cairo")
	assert.Equal(t, []string{"c"}, ids(c.Visible()))
	c.SetFilter("egypt")
	assert.Empty(t, c.Visible())
}

func TestStaleFetchDropped(t *testing.T) {
	store := &fakeStore{docs: projects()}
	c, _, _ := newController(t, store)

	stale := c.Refresh()
	fresh := c.Refresh()

	store.docs = store.docs[:1]
	c.Run(context.Background(), fresh)
	assert.Equal(t, []string{"a"}, ids(c.Records()))

	store.docs = projects()
	c.Run(context.Background(), stale)
	assert.Equal(t, []string{"a"}, ids(c.Records()), "superseded fetch applied")
}

func TestRefreshDuringUpdate(t *testing.T) {
	store := &fakeStore{docs: projects()}
	c, notices, _ := newController(t, store)

	commit := c.Move("a", 1)
	require.NotNil(t, commit)
	refresh := c.Refresh()
	assert.Equal(t, Loading, c.State())

	c.Run(context.Background(), refresh)
	assert.Equal(t, Updating, c.State(), "write guard survives a refresh")
	assert.Nil(t, c.Move("c", -1))

	c.Run(context.Background(), commit)
	assert.Equal(t, Ready, c.State())
	// the refresh snapshot wins over the older optimistic order
	assert.Equal(t, []string{"a", "drafts.b", "c"}, ids(c.Records()))
	require.Len(t, *notices, 1)
	assert.Equal(t, NoticeSuccess, (*notices)[0].Level)
}

func TestClosedDiscardsResults(t *testing.T) {
	store := &fakeStore{docs: projects()}
	c, notices, _ := newController(t, store)

	commit := c.Move("a", 1)
	refresh := c.Refresh()
	c.Close()

	store.docs = nil
	c.Run(context.Background(), refresh)
	c.Run(context.Background(), commit)
	assert.Empty(t, *notices)
	assert.Len(t, c.Records(), 3)
	assert.Nil(t, c.Refresh())
	assert.ErrorIs(t, c.OpenEditor("a"), ErrClosed)
}

func TestOpenEditor(t *testing.T) {
	c, _, rec := newController(t, &fakeStore{docs: projects()})

	require.NoError(t, c.OpenEditor("drafts.b"))
	assert.Equal(t, []string{"/structure/project;b"}, rec.Paths)
	assert.ErrorIs(t, c.OpenEditor("zzz"), db.ErrNotFound)
}

func TestEditPathTemplate(t *testing.T) {
	cfg, err := FromSettings(config.Pane{
		Type:     "project",
		Title:    "Projects",
		EditPath: "/structure/all-projects;{{ .BaseID }}",
	})
	require.NoError(t, err)
	assert.Equal(t, "/structure/all-projects;b", cfg.editPath(v1.Record{ID: "drafts.b"}))

	_, err = FromSettings(config.Pane{Type: "project", Title: "P", EditPath: "{{ .Nope"})
	assert.Error(t, err)
}

func TestLabelFallsBackToID(t *testing.T) {
	cfg, err := FromSettings(config.Pane{Type: "project", Title: "P", LabelField: "name"})
	require.NoError(t, err)
	assert.Equal(t, "Bergen", cfg.label(v1.Record{ID: "b", Fields: map[string]any{"name": "  Bergen "}}))
	assert.Equal(t, "b", cfg.label(v1.Record{ID: "b", Fields: map[string]any{"name": "   "}}))
	assert.Equal(t, "b", cfg.label(v1.Record{ID: "b"}))
}
