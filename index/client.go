// Package index implements the asynchronous client to the external
// full-text index: document update, commit, query, and the
// field-suffix mapping that turns a (path, Value) pair
// into the dynamic fields the index stores per object.
//
// The client retries commits on transient failure and surfaces
// persistent failures as SearchError on the next query, so the write
// path stays fire-and-forget.
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"fluidinfo/logger"
	"fluidinfo/models"
)

// Document is one object's full set of dynamic index fields, keyed by
// "fluiddb/id".
type Document map[string]any

// Client wraps a retryablehttp.Client pointed at the index service's base
// URL. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *retryablehttp.Client

	mu            sync.Mutex
	lastCommitErr error
}

// New builds a Client. commitRetries sets retryablehttp's retry count,
// which applies to every request the client makes, not only Commit.
func New(baseURL string, requestTimeout time.Duration, commitRetries int) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = commitRetries
	hc.HTTPClient.Timeout = requestTimeout
	hc.Logger = nil // keep retryablehttp quiet; this package logs itself
	return &Client{baseURL: baseURL, http: hc}
}

// Update POSTs dynamic-field JSON documents for docs.
func (c *Client) Update(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	body, err := json.Marshal(docs)
	if err != nil {
		return models.Wrap(models.KindSearchError, err, "index: encoding update body")
	}
	if err := c.post(ctx, "/update", body); err != nil {
		logger.Error("index: update failed: %v", err)
		return models.Wrap(models.KindSearchError, err, "index: update")
	}
	logger.Debug("index: updated %d document(s)", len(docs))
	return nil
}

// Commit flushes pending updates. Transient commit failures are
// retried by the underlying retryablehttp.Client; a failure that survives
// all retries is remembered and surfaced as SearchError on the *next*
// Query call rather than on this fire-and-forget call.
func (c *Client) Commit(ctx context.Context) error {
	err := c.post(ctx, "/update?commit=true", nil)
	c.mu.Lock()
	c.lastCommitErr = err
	c.mu.Unlock()
	if err != nil {
		logger.Error("index: commit failed after retries: %v", err)
	}
	return nil
}

// DeleteAll issues deleteByQuery('*:*'), used by a clean index rebuild.
func (c *Client) DeleteAll(ctx context.Context) error {
	body := []byte(`{"delete":{"query":"*:*"}}`)
	if err := c.post(ctx, "/update", body); err != nil {
		return models.Wrap(models.KindSearchError, err, "index: deleteByQuery")
	}
	return c.Commit(ctx)
}

// queryResponse is the subset of the index's JSON query response this
// client needs: per-query document IDs.
type queryResponse struct {
	Results []struct {
		ID string `json:"fluiddb/id"`
	} `json:"docs"`
}

// Query executes a single Lucene-style boolean query string against the
// index, returning the matching
// object IDs. If a prior Commit failed and never recovered, Query
// surfaces that as SearchError instead of running.
func (c *Client) Query(ctx context.Context, luceneQuery string) ([]uuid.UUID, error) {
	c.mu.Lock()
	pending := c.lastCommitErr
	c.mu.Unlock()
	if pending != nil {
		return nil, models.Wrap(models.KindSearchError, pending, "index: prior commit failure not yet recovered")
	}

	u := c.baseURL + "/select?q=" + url.QueryEscape(luceneQuery) + "&wt=json"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, models.Wrap(models.KindSearchError, err, "index: building query request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, models.Wrap(models.KindSearchError, err, "index: query %q", luceneQuery)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, models.NewError(models.KindSearchError, "index: query %q returned status %d", luceneQuery, resp.StatusCode)
	}
	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, models.Wrap(models.KindSearchError, err, "index: decoding query response")
	}
	out := make([]uuid.UUID, 0, len(qr.Results))
	for _, r := range qr.Results {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// ImportStatus polls the data-import status endpoint: busy remains
// true until the import completes, at which point message carries the
// completion text.
func (c *Client) ImportStatus(ctx context.Context) (busy bool, message string, err error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dataimport?command=status", nil)
	if err != nil {
		return false, "", models.Wrap(models.KindSearchError, err, "index: building status request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, "", models.Wrap(models.KindSearchError, err, "index: status request")
	}
	defer resp.Body.Close()
	var status struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false, "", models.Wrap(models.KindSearchError, err, "index: decoding status response")
	}
	return status.Status == "busy", status.Message, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("index: %s returned status %d", path, resp.StatusCode)
	}
	return nil
}
