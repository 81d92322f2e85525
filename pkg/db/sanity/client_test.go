package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/byxorna/orderpane/pkg/db"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Settings{
		ProjectID:  "abc123",
		Dataset:    "production",
		APIVersion: "2025-01-12",
		Token:      "secret",
		BaseURL:    srv.URL,
	}, srv.Client(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestGROQ(t *testing.T) {
	assert.Equal(t, "*[_type == $type]{_id, _type, orderRank}", GROQ(""))
	assert.Equal(t,
		`*[_type == $type]{_id, _type, orderRank, name, slug, "coverImageUrl": coverImage.asset->url}`,
		GROQ(`name, slug, "coverImageUrl": coverImage.asset->url,`))
}

func TestNewRequiresSettings(t *testing.T) {
	_, err := New(Settings{ProjectID: "x"}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2025-01-12/data/query/production", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		q := r.URL.Query()
		assert.Equal(t, `"project"`, q.Get("$type"))
		assert.Equal(t, "raw", q.Get("perspective"))
		assert.Equal(t, "*[_type == $type]{_id, _type, orderRank, name}", q.Get("query"))

		_, _ = io.WriteString(w, `{"ms": 3, "result": [
			{"_id": "drafts.x", "_type": "project", "orderRank": "r00000001", "name": "X"},
			{"_id": "x", "_type": "project", "orderRank": null, "name": "X", "slug": {"current": "x"}}
		]}`)
	})

	docs, err := c.Fetch(context.Background(), db.Query{Type: "project", Projection: "name"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "drafts.x", docs[0].ID)
	assert.Equal(t, "r00000001", docs[0].Rank)
	assert.Equal(t, "X", docs[0].String("name"))
	assert.Equal(t, "", docs[1].Rank)
	assert.Equal(t, "x", docs[1].String("slug"))
	assert.Equal(t, v1.StatusOK, c.Status())
}

func TestConcurrentFetch(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result": [{"_id": "x", "_type": "project"}]}`)
	})

	var g errgroup.Group
	for _, typ := range []string{"project", "person", "category"} {
		g.Go(func() error {
			_, err := c.Fetch(context.Background(), db.Query{Type: typ})
			return err
		})
		g.Go(func() error {
			_ = c.Status()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, v1.StatusOK, c.Status())
}

func TestCommit(t *testing.T) {
	var got mutateRequest
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2025-01-12/data/mutate/production", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "async", q.Get("visibility"))
		assert.Equal(t, "orderable-pane.project.reorder", q.Get("tag"))
		assert.NotEmpty(t, q.Get("transactionId"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"transactionId": "tx1", "results": []}`)
	})

	err := c.Commit(context.Background(), db.Transaction{
		Tag:        "orderable-pane.project.reorder",
		Visibility: db.VisibilityAsync,
		Patches: []v1.Patch{
			{TargetID: "drafts.x", Set: map[string]string{v1.RankField: "r00000000"}},
			{TargetID: "x", Set: map[string]string{v1.RankField: "r00000000"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, got.Mutations, 2)
	assert.Equal(t, "drafts.x", got.Mutations[0].Patch.ID)
	assert.Equal(t, "x", got.Mutations[1].Patch.ID)
	assert.Equal(t, "r00000000", got.Mutations[1].Patch.Set[v1.RankField])
}

func TestCommitError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error": {"description": "document revision mismatch"}}`)
	})

	err := c.Commit(context.Background(), db.Transaction{Patches: []v1.Patch{{TargetID: "x"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrConflict))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "document revision mismatch", apiErr.Description)
	assert.Equal(t, v1.StatusError, c.Status())
}

func TestFetchServerError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := c.Fetch(context.Background(), db.Query{Type: "project"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
