// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/tales/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for world memory.
	DefaultCollectionName = "tales"

	defaultMaxRetries    = 5
	defaultRetryDelay    = 500 * time.Millisecond
	defaultMaxRetryDelay = 5 * time.Second

	apiPrefix = "/api/v2/tenants/default_tenant/databases/default_database/collections"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *slog.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string

	// MaxRetries bounds the connection attempts made while Chroma starts up.
	MaxRetries int

	// RetryDelay is the first backoff delay; it doubles up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDriver creates a new Chroma vector driver, retrying the collection
// lookup with exponential backoff.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, errors.New("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	delay := c.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	maxDelay := c.MaxRetryDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxRetryDelay
	}

	d := &Driver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		collectionID, err := d.getOrCreateCollection(context.Background())
		if err == nil {
			d.collectionID = collectionID
			logger.Info("connected to chroma",
				"url", c.URL,
				"collection", collectionName,
				"collection_id", collectionID,
			)
			return d, nil
		}

		lastErr = err
		if attempt == maxRetries {
			break
		}
		logger.Warn("chroma not ready, retrying",
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		time.Sleep(delay)
		delay = min(delay*2, maxDelay)
	}

	return nil, fmt.Errorf("%w: getting or creating collection %q after %d attempts: %w",
		vector.ErrConnection, collectionName, maxRetries, lastErr)
}

func (d *Driver) collectionURL(suffix string) string {
	return d.baseURL + apiPrefix + "/" + d.collectionID + suffix
}

// post sends body as JSON and decodes a 200/201 response into out.
func (d *Driver) post(ctx context.Context, url string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	url := d.baseURL + apiPrefix + "/" + d.collectionName

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	var collection chromaCollection
	err = d.post(ctx, d.baseURL+apiPrefix, chromaCreateCollectionRequest{
		Name:     d.collectionName,
		Metadata: map[string]any{"hnsw:space": "cosine"},
	}, &collection)
	if err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}
	return collection.ID, nil
}

// Add stores documents. Existing IDs are detected with a Get first because
// Chroma's add silently ignores them.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	existing, err := d.Get(ctx, ids)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, existing[0].ID)
	}

	reqBody := chromaAddRequest{
		IDs:        ids,
		Embeddings: make([][]float32, len(docs)),
		Metadatas:  make([]map[string]any, len(docs)),
		Documents:  make([]string, len(docs)),
	}
	for i, doc := range docs {
		reqBody.Embeddings[i] = doc.Embedding
		reqBody.Documents[i] = doc.Text
		meta := make(map[string]any, len(doc.Tags))
		for k, v := range doc.Tags {
			meta[k] = v
		}
		reqBody.Metadatas[i] = meta
	}

	if err := d.post(ctx, d.collectionURL("/add"), reqBody, nil); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	d.logger.Debug("added documents to chroma", "count", len(docs))
	return nil
}

// whereClause renders a tag filter in Chroma's metadata filter language.
// A single equality is sent bare; several are wrapped in $and.
func whereClause(filter vector.Filter) map[string]any {
	keys := filter.Keys()
	switch len(keys) {
	case 0:
		return nil
	case 1:
		return map[string]any{keys[0]: map[string]any{"$eq": filter[keys[0]]}}
	}

	clauses := make([]map[string]any, len(keys))
	for i, k := range keys {
		clauses[i] = map[string]any{k: map[string]any{"$eq": filter[k]}}
	}
	return map[string]any{"$and": clauses}
}

// Query finds the topK most similar documents matching filter.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return []vector.QueryResult{}, nil
	}

	var queryResp chromaQueryResponse
	err := d.post(ctx, d.collectionURL("/query"), chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Where:           whereClause(filter),
		Include:         []string{"metadatas", "documents", "distances"},
	}, &queryResp)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}

	results := []vector.QueryResult{}

	// We only query with one embedding, so only the first group matters.
	if len(queryResp.IDs) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]
	var (
		distances []float32
		metadatas []map[string]any
		documents []string
	)
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}

	for i, id := range ids {
		result := vector.QueryResult{Document: vector.Document{ID: id}}
		if i < len(documents) {
			result.Text = documents[i]
		}
		if i < len(metadatas) {
			result.Tags = stringTags(metadatas[i])
		}
		if i < len(distances) {
			// cosine space: distance = 1 - similarity
			result.Score = 1 - distances[i]
		}
		results = append(results, result)
	}

	d.logger.Debug("queried chroma", "results", len(results), "filter", filter)
	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var getResp chromaGetResponse
	err := d.post(ctx, d.collectionURL("/get"), chromaGetRequest{
		IDs:     ids,
		Include: []string{"metadatas", "documents", "embeddings"},
	}, &getResp)
	if err != nil {
		return nil, fmt.Errorf("getting documents: %w", err)
	}

	docs := make([]vector.Document, len(getResp.IDs))
	for i, id := range getResp.IDs {
		docs[i] = vector.Document{ID: id}
		if i < len(getResp.Documents) {
			docs[i].Text = getResp.Documents[i]
		}
		if i < len(getResp.Metadatas) {
			docs[i].Tags = stringTags(getResp.Metadatas[i])
		}
		if i < len(getResp.Embeddings) {
			docs[i].Embedding = getResp.Embeddings[i]
		}
	}
	return docs, nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

func stringTags(meta map[string]any) map[string]string {
	if meta == nil {
		return nil
	}
	tags := make(map[string]string, len(meta))
	for k, v := range meta {
		if s, ok := v.(string); ok {
			tags[k] = s
		}
	}
	return tags
}
