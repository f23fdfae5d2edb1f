package loader

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/revdeps/pkg/errors"
	"github.com/matzehuels/revdeps/pkg/manifest"
)

const (
	DefaultMongoDatabase   = "revdeps"
	DefaultMongoCollection = "packages"

	mongoConnectTimeout = 10 * time.Second
)

// Mongo loads manifests from a MongoDB collection. Each document uses the
// package.json field names: name, version, dependencies, devDependencies
// and peerDependencies.
type Mongo struct {
	URI        string
	Database   string
	Collection string
	Logger     *log.Logger
}

func (m Mongo) String() string {
	return fmt.Sprintf("mongodb:%s.%s", m.database(), m.collection())
}

// Load reads every document in the collection. Documents that fail to
// decode are skipped. The result is ordered by document _id.
func (m Mongo) Load(ctx context.Context) ([]manifest.Manifest, error) {
	if m.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo uri is required")
	}
	logger := discard(m.Logger)

	connectCtx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(m.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Debug("mongo disconnect failed", "err", err)
		}
	}()

	coll := client.Database(m.database()).Collection(m.collection())
	cur, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", m, err)
	}
	defer cur.Close(ctx)

	var out []manifest.Manifest
	for cur.Next(ctx) {
		mf, err := decodeDocument(cur.Current)
		if err != nil {
			logger.Debug("document could not be decoded", "collection", m.collection(), "err", err)
			continue
		}
		out = append(out, mf)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", m, err)
	}
	logger.Debug("loaded manifests", "source", m.String(), "manifests", len(out))
	return out, nil
}

func (m Mongo) database() string {
	if m.Database != "" {
		return m.Database
	}
	return DefaultMongoDatabase
}

func (m Mongo) collection() string {
	if m.Collection != "" {
		return m.Collection
	}
	return DefaultMongoCollection
}

// document is the stored shape of a manifest.
type document struct {
	ID               any               `bson:"_id,omitempty"`
	Name             string            `bson:"name"`
	Version          string            `bson:"version"`
	Dependencies     map[string]string `bson:"dependencies,omitempty"`
	DevDependencies  map[string]string `bson:"devDependencies,omitempty"`
	PeerDependencies map[string]string `bson:"peerDependencies,omitempty"`
}

func decodeDocument(raw bson.Raw) (manifest.Manifest, error) {
	var doc document
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return manifest.Manifest{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode document")
	}
	source := doc.Name
	if doc.ID != nil {
		source = fmt.Sprint(doc.ID)
	}
	return manifest.Manifest{
		Name:             doc.Name,
		Version:          doc.Version,
		Dependencies:     doc.Dependencies,
		DevDependencies:  doc.DevDependencies,
		PeerDependencies: doc.PeerDependencies,
		Source:           "mongodb:" + source,
	}, nil
}

// EncodeDocument converts a manifest to its stored shape, for seeding a
// collection.
func EncodeDocument(m manifest.Manifest) bson.D {
	d := bson.D{
		{Key: "name", Value: m.Name},
		{Key: "version", Value: m.Version},
	}
	for _, kind := range manifest.Kinds {
		b := m.Bucket(kind)
		if len(b) == 0 {
			continue
		}
		deps := make(bson.D, 0, len(b))
		for _, name := range slices.Sorted(maps.Keys(b)) {
			deps = append(deps, bson.E{Key: name, Value: b[name]})
		}
		d = append(d, bson.E{Key: kind.String(), Value: deps})
	}
	return d
}
