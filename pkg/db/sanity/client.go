// Package sanity talks to the Sanity HTTP API: GROQ queries to fetch
// documents and the mutate endpoint to commit rank patches.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/byxorna/orderpane/pkg/db"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const Name = "sanity"

var (
	// DefaultTimeout bounds a single API round trip
	DefaultTimeout = 30 * time.Second
)

type Settings struct {
	ProjectID  string  `validate:"required"`
	Dataset    string  `validate:"required"`
	APIVersion string  `validate:"required"`
	Token      string  `validate:"required"`
	BaseURL    string  `validate:"omitempty,url"`
	RateLimit  float64 `validate:"gte=0"`
	Burst      int     `validate:"gte=0"`
}

type Client struct {
	settings Settings
	http     *http.Client
	limiter  *rate.Limiter
	log      *zap.Logger

	mu     sync.Mutex
	status v1.SyncStatus
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sanity: %d %s", e.StatusCode, e.Description)
}

func New(settings Settings, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("client failed validation: %w", err)
	}
	if settings.BaseURL == "" {
		settings.BaseURL = fmt.Sprintf("https://%s.api.sanity.io", settings.ProjectID)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	limit := rate.Inf
	if settings.RateLimit > 0 {
		limit = rate.Limit(settings.RateLimit)
	}
	burst := settings.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		settings: settings,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		log:      log.Named(Name),
		status:   v1.StatusUninitialized,
	}, nil
}

func (c *Client) Name() string { return Name }
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) Status() v1.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) setStatus(status v1.SyncStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}

// GROQ builds the fetch query for a pane.
func GROQ(projection string) string {
	fields := []string{"_id", "_type", v1.RankField}
	if p := strings.TrimSpace(projection); p != "" {
		fields = append(fields, strings.TrimSuffix(p, ","))
	}
	return fmt.Sprintf("*[_type == $type]{%s}", strings.Join(fields, ", "))
}

type queryResponse struct {
	Result []map[string]any `json:"result"`
}

// Fetch runs the pane query against the raw perspective so drafts and
// published documents both come back.
func (c *Client) Fetch(ctx context.Context, q db.Query) ([]v1.Record, error) {
	typeParam, err := json.Marshal(q.Type)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("query", GROQ(q.Projection))
	params.Set("$type", string(typeParam))
	params.Set("perspective", "raw")
	params.Set("tag", fmt.Sprintf("orderable-pane.%s.fetch", q.Type))

	var res queryResponse
	c.setStatus(v1.StatusSynchronizing)
	if err := c.do(ctx, http.MethodGet, c.endpoint("query", params), nil, &res); err != nil {
		c.setStatus(v1.StatusError)
		return nil, err
	}

	out := make([]v1.Record, 0, len(res.Result))
	for _, raw := range res.Result {
		out = append(out, recordFromDocument(raw))
	}
	c.setStatus(v1.StatusOK)
	c.log.Debug("fetched documents", zap.String("type", q.Type), zap.Int("count", len(out)))
	return out, nil
}

type mutation struct {
	Patch patch `json:"patch"`
}

type patch struct {
	ID  string            `json:"id"`
	Set map[string]string `json:"set"`
}

type mutateRequest struct {
	Mutations []mutation `json:"mutations"`
}

type mutateResponse struct {
	TransactionID string `json:"transactionId"`
}

// Commit sends every patch in one mutate request, which Sanity applies as a
// single transaction.
func (c *Client) Commit(ctx context.Context, tx db.Transaction) error {
	body := mutateRequest{Mutations: make([]mutation, len(tx.Patches))}
	for i, p := range tx.Patches {
		body.Mutations[i] = mutation{Patch: patch{ID: p.TargetID, Set: p.Set}}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode mutations: %w", err)
	}

	visibility := tx.Visibility
	if visibility == "" {
		visibility = db.VisibilitySync
	}
	params := url.Values{}
	params.Set("visibility", string(visibility))
	params.Set("transactionId", uuid.NewString())
	if tx.Tag != "" {
		params.Set("tag", tx.Tag)
	}

	var res mutateResponse
	c.setStatus(v1.StatusSynchronizing)
	if err := c.do(ctx, http.MethodPost, c.endpoint("mutate", params), b, &res); err != nil {
		c.setStatus(v1.StatusError)
		return err
	}
	c.setStatus(v1.StatusOK)
	c.log.Info("committed transaction",
		zap.String("transaction", res.TransactionID),
		zap.String("tag", tx.Tag),
		zap.Int("patches", len(tx.Patches)))
	return nil
}

func (c *Client) endpoint(kind string, params url.Values) string {
	return fmt.Sprintf("%s/v%s/data/%s/%s?%s",
		strings.TrimSuffix(c.settings.BaseURL, "/"),
		strings.TrimPrefix(c.settings.APIVersion, "v"),
		kind,
		url.PathEscape(c.settings.Dataset),
		params.Encode())
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.settings.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, payload)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(status int, payload []byte) error {
	var env struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
		Message string `json:"message"`
	}
	e := &APIError{StatusCode: status, Description: http.StatusText(status)}
	if json.Unmarshal(payload, &env) == nil {
		switch {
		case env.Error.Description != "":
			e.Description = env.Error.Description
		case env.Message != "":
			e.Description = env.Message
		}
	}
	if status == http.StatusConflict {
		return fmt.Errorf("%w: %w", db.ErrConflict, e)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", db.ErrNotFound, e)
	}
	return e
}

func recordFromDocument(raw map[string]any) v1.Record {
	r := v1.Record{Fields: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "_id":
			r.ID, _ = v.(string)
		case "_type":
			r.Type, _ = v.(string)
		case v1.RankField:
			r.Rank, _ = v.(string)
		default:
			r.Fields[k] = v
		}
	}
	return r
}
