// Package qdrant provides a vector.Driver backed by a Qdrant server over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	qc "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/tales/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for world memory.
	DefaultCollectionName = "tales"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	payloadDocID = "doc_id"
	payloadText  = "text"
	payloadTags  = "tags"
)

// pointNamespace scopes the deterministic point IDs derived from document IDs.
var pointNamespace = uuid.MustParse("5c2b8a34-7f0e-4f4e-9d55-5a1d0f0e7a11")

// Config holds configuration for the Qdrant driver.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// CollectionName defaults to DefaultCollectionName.
	CollectionName string

	// Dimensions sizes the collection when it has to be created.
	Dimensions uint
}

// Driver implements vector.Driver using the Qdrant Go client.
type Driver struct {
	client     *qc.Client
	collection string
	logger     *slog.Logger
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(ctx context.Context, c Config, logger *slog.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, errors.New("qdrant host is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	client, err := qc.NewClient(&qc.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	exists, err := client.CollectionExists(ctx, collection)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, collection, err)
	}
	if !exists {
		err = client.CreateCollection(ctx, &qc.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qc.Distance_Cosine,
			}),
		})
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("creating collection %q: %w", collection, err)
		}
	}

	logger.Info("connected to qdrant",
		"host", c.Host,
		"port", port,
		"collection", collection,
		"created", !exists,
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// pointID maps a free-form document ID onto the UUID space Qdrant accepts.
func pointID(docID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(docID)).String()
}

// Add upserts documents after checking none of the IDs exist yet.
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

	points := make([]*qc.PointStruct, len(docs))
	for i, doc := range docs {
		tags := make(map[string]any, len(doc.Tags))
		for k, v := range doc.Tags {
			tags[k] = v
		}
		points[i] = &qc.PointStruct{
			Id:      qc.NewID(pointID(doc.ID)),
			Vectors: qc.NewVectors(doc.Embedding...),
			Payload: qc.NewValueMap(map[string]any{
				payloadDocID: doc.ID,
				payloadText:  doc.Text,
				payloadTags:  tags,
			}),
		}
	}

	wait := true
	if _, err := d.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant", "count", len(docs))
	return nil
}

// conditions renders a tag filter as Qdrant must-match conditions on the
// nested tags payload.
func conditions(filter vector.Filter) *qc.Filter {
	if len(filter) == 0 {
		return nil
	}
	must := make([]*qc.Condition, 0, len(filter))
	for _, k := range filter.Keys() {
		must = append(must, qc.NewMatch(payloadTags+"."+k, filter[k]))
	}
	return &qc.Filter{Must: must}
}

// Query finds the topK most similar documents matching filter.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return []vector.QueryResult{}, nil
	}

	points, err := d.client.Query(ctx, &qc.QueryPoints{
		CollectionName: d.collection,
		Query:          qc.NewQuery(embedding...),
		Filter:         conditions(filter),
		Limit:          qc.PtrOf(uint64(topK)),
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Document: fromPayload(p.GetPayload()),
			Score:    p.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant", "results", len(results), "filter", filter)
	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qc.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qc.NewID(pointID(id))
	}

	points, err := d.client.Get(ctx, &qc.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, p := range points {
		doc := fromPayload(p.GetPayload())
		doc.Embedding = p.GetVectors().GetVector().GetData()
		docs = append(docs, doc)
	}
	return docs, nil
}

// Close closes the gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

func fromPayload(payload map[string]*qc.Value) vector.Document {
	doc := vector.Document{
		ID:   payload[payloadDocID].GetStringValue(),
		Text: payload[payloadText].GetStringValue(),
	}
	if fields := payload[payloadTags].GetStructValue().GetFields(); len(fields) > 0 {
		doc.Tags = make(map[string]string, len(fields))
		for k, v := range fields {
			doc.Tags[k] = v.GetStringValue()
		}
	}
	return doc
}
