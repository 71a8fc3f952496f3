// Package mongo implements store.Store on MongoDB, keeping batches and
// samples in separate collections of one database.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

const (
	batchesCollection = "batches"
	samplesCollection = "groundwaterdatas"

	rollbackTimeout = 5 * time.Second
)

// Store is a MongoDB-backed store.Store.
type Store struct {
	client  *mongo.Client
	batches *mongo.Collection
	samples *mongo.Collection
	logger  *slog.Logger
}

// New connects to uri, selects database and ensures the sample index exists.
func New(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:  client,
		batches: db.Collection(batchesCollection),
		samples: db.Collection(samplesCollection),
		logger:  logger,
	}

	_, err = s.samples.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "batchOrder", Value: 1}, {Key: "position", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create sample index: %w", err)
	}
	return s, nil
}

type batchDoc struct {
	ID        string             `bson:"_id"`
	Order     primitive.ObjectID `bson:"order"`
	Name      string             `bson:"filename"`
	Count     int                `bson:"count"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type sampleDoc struct {
	BatchID    string             `bson:"batchId"`
	BatchOrder primitive.ObjectID `bson:"batchOrder"`
	Position   int                `bson:"position"`

	SampleID        string  `bson:"sampleId"`
	Location        string  `bson:"location"`
	Longitude       float64 `bson:"longitude"`
	Latitude        float64 `bson:"latitude"`
	PH              float64 `bson:"pH"`
	EC              float64 `bson:"EC"`
	TDS             float64 `bson:"TDS"`
	As              float64 `bson:"As"`
	Cd              float64 `bson:"Cd"`
	Cr              float64 `bson:"Cr"`
	Cu              float64 `bson:"Cu"`
	Fe              float64 `bson:"Fe"`
	Mn              float64 `bson:"Mn"`
	Ni              float64 `bson:"Ni"`
	Pb              float64 `bson:"Pb"`
	Zn              float64 `bson:"Zn"`
	HeavyMetalIndex float64 `bson:"heavyMetalIndex"`
}

func toSampleDoc(batch batchDoc, position int, s domain.Sample) sampleDoc {
	return sampleDoc{
		BatchID:         batch.ID,
		BatchOrder:      batch.Order,
		Position:        position,
		SampleID:        s.SampleID,
		Location:        s.Location,
		Longitude:       s.Longitude,
		Latitude:        s.Latitude,
		PH:              s.PH,
		EC:              s.EC,
		TDS:             s.TDS,
		As:              s.As,
		Cd:              s.Cd,
		Cr:              s.Cr,
		Cu:              s.Cu,
		Fe:              s.Fe,
		Mn:              s.Mn,
		Ni:              s.Ni,
		Pb:              s.Pb,
		Zn:              s.Zn,
		HeavyMetalIndex: s.HeavyMetalIndex,
	}
}

func (d sampleDoc) sample() domain.Sample {
	return domain.Sample{
		SampleID:        d.SampleID,
		Location:        d.Location,
		Longitude:       d.Longitude,
		Latitude:        d.Latitude,
		PH:              d.PH,
		EC:              d.EC,
		TDS:             d.TDS,
		As:              d.As,
		Cd:              d.Cd,
		Cr:              d.Cr,
		Cu:              d.Cu,
		Fe:              d.Fe,
		Mn:              d.Mn,
		Ni:              d.Ni,
		Pb:              d.Pb,
		Zn:              d.Zn,
		HeavyMetalIndex: d.HeavyMetalIndex,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// SaveBatch inserts the batch document, then its samples. If the sample
// insert fails the batch document is removed again.
func (s *Store) SaveBatch(ctx context.Context, batch store.Batch, samples []domain.Sample) error {
	doc := batchDoc{
		ID:        batch.ID,
		Order:     primitive.NewObjectID(),
		Name:      batch.Name,
		Count:     len(samples),
		CreatedAt: batch.CreatedAt.UTC(),
	}
	if _, err := s.batches.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert batch %s: %w", batch.ID, err)
	}
	if len(samples) == 0 {
		return nil
	}

	docs := make([]interface{}, len(samples))
	for i, sample := range samples {
		docs[i] = toSampleDoc(doc, i, sample)
	}
	if _, err := s.samples.InsertMany(ctx, docs); err != nil {
		s.rollback(ctx, batch.ID,
			func(ctx context.Context) error {
				_, err := s.samples.DeleteMany(ctx, bson.M{"batchId": batch.ID})
				return err
			},
			func(ctx context.Context) error {
				_, err := s.batches.DeleteOne(ctx, bson.M{"_id": batch.ID})
				return err
			},
		)
		return fmt.Errorf("insert samples of batch %s: %w", batch.ID, err)
	}
	return nil
}

// rollback runs every cleanup step on a context that survives cancellation
// of ctx, bounded by rollbackTimeout. Failures are logged, not returned.
func (s *Store) rollback(ctx context.Context, batchID string, steps ...func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	for _, step := range steps {
		if err := step(ctx); err != nil {
			s.logger.Error("batch rollback failed", "batch_id", batchID, "error", err)
		}
	}
}

func (s *Store) Samples(ctx context.Context) ([]domain.Sample, error) {
	return s.findSamples(ctx, bson.M{})
}

func (s *Store) BatchSamples(ctx context.Context, id string) ([]domain.Sample, error) {
	err := s.batches.FindOne(ctx, bson.M{"_id": id}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup batch %s: %w", id, err)
	}
	return s.findSamples(ctx, bson.M{"batchId": id})
}

func (s *Store) findSamples(ctx context.Context, filter bson.M) ([]domain.Sample, error) {
	opts := options.Find().SetSort(bson.D{{Key: "batchOrder", Value: 1}, {Key: "position", Value: 1}})
	cur, err := s.samples.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find samples: %w", err)
	}

	var docs []sampleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}

	out := make([]domain.Sample, len(docs))
	for i, d := range docs {
		out[i] = d.sample()
	}
	return out, nil
}

func (s *Store) Batches(ctx context.Context) ([]store.Batch, error) {
	cur, err := s.batches.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find batches: %w", err)
	}

	var docs []batchDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode batches: %w", err)
	}

	out := make([]store.Batch, len(docs))
	for i, d := range docs {
		out[i] = store.Batch{ID: d.ID, Name: d.Name, Count: d.Count, CreatedAt: d.CreatedAt}
	}
	return out, nil
}

func (s *Store) DeleteBatch(ctx context.Context, id string) error {
	res, err := s.batches.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete batch %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	if _, err := s.samples.DeleteMany(ctx, bson.M{"batchId": id}); err != nil {
		return fmt.Errorf("delete samples of batch %s: %w", id, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
