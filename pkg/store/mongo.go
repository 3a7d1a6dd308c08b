package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sticky3d/deskgeom/pkg/errors"
)

// MongoOptions configures [OpenMongoStore].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps one document per docked object, unique on
// (scene_id, object_id).
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongoStore connects, pings and ensures the unique index.
func OpenMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongo")
	}
	coll := client.Database(opts.Database).Collection(opts.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "scene_id", Value: 1}, {Key: "object_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create dock index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func filter(sceneID, objectID string) bson.M {
	return bson.M{"scene_id": sceneID, "object_id": objectID}
}

func (s *MongoStore) Put(ctx context.Context, r Record) error {
	if err := validateKey(r.SceneID, r.ObjectID); err != nil {
		return err
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	_, err := s.coll.ReplaceOne(ctx, filter(r.SceneID, r.ObjectID), r, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "put dock %s/%s", r.SceneID, r.ObjectID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, sceneID, objectID string) (Record, error) {
	var r Record
	err := s.coll.FindOne(ctx, filter(sceneID, objectID)).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return Record{}, notFound(sceneID, objectID)
	}
	if err != nil {
		return Record{}, errors.Wrap(errors.ErrCodeInternal, err, "get dock %s/%s", sceneID, objectID)
	}
	return r, nil
}

func (s *MongoStore) List(ctx context.Context, sceneID string) ([]Record, error) {
	cur, err := s.coll.Find(ctx, bson.M{"scene_id": sceneID}, options.Find().SetSort(bson.D{{Key: "object_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list docks for %s", sceneID)
	}
	var out []Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode docks for %s", sceneID)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, sceneID, objectID string) error {
	if _, err := s.coll.DeleteOne(ctx, filter(sceneID, objectID)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete dock %s/%s", sceneID, objectID)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
