package store

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/openobs/enclosure/sensors"
)

// currentCollection holds one document per device, replaced on every
// capture.
const currentCollection = "current"

// MongoConfig locates the observatory database.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// Mongo is a Store backed by the observatory's MongoDB instance.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	logger golog.Logger
}

// NewMongo connects to the database and verifies it is reachable.
func NewMongo(ctx context.Context, cfg MongoConfig, logger golog.Logger) (*Mongo, error) {
	if cfg.Database == "" {
		cfg.Database = "enclosure"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "pinging mongo")
	}
	return &Mongo{client: client, db: client.Database(cfg.Database), logger: logger}, nil
}

// InsertCurrent upserts the device's current reading.
func (m *Mongo) InsertCurrent(ctx context.Context, device string, reading *sensors.Reading) error {
	_, err := m.db.Collection(currentCollection).ReplaceOne(ctx,
		bson.M{"device": device},
		reading,
		options.Replace().SetUpsert(true),
	)
	return errors.Wrapf(err, "storing current reading for %q", device)
}

// GetCurrent returns the device's current reading, or ErrNoReading.
func (m *Mongo) GetCurrent(ctx context.Context, device string) (*sensors.Reading, error) {
	var reading sensors.Reading
	err := m.db.Collection(currentCollection).FindOne(ctx, bson.M{"device": device}).Decode(&reading)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoReading
	}
	if err != nil {
		return nil, errors.Wrapf(err, "fetching current reading for %q", device)
	}
	return &reading, nil
}

// Close disconnects from the database.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
