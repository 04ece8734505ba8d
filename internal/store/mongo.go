package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{coll: s.db.Collection(name)}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context, collection string, specs []IndexSpec) error {
	if len(specs) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(specs))
	for _, sp := range specs {
		keys := bson.D{}
		for _, k := range sp.Keys {
			keys = append(keys, bson.E{Key: k, Value: 1})
		}
		models = append(models, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(sp.Unique),
		})
	}
	if _, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("store: create indexes on %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) Name() string { return c.coll.Name() }

func (c *mongoCollection) Insert(ctx context.Context, doc any) error {
	_, err := c.coll.InsertOne(ctx, doc)
	return translate(err)
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M, w Window, out any) error {
	// 按 _id 升序，保证翻页稳定
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if w.Skip > 0 {
		opts.SetSkip(w.Skip)
	}
	if w.Limit > 0 {
		opts.SetLimit(w.Limit)
	}
	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return translate(err)
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.M, out any) error {
	return translate(c.coll.FindOne(ctx, filter).Decode(out))
}

func (c *mongoCollection) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, filter)
	return n, translate(err)
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter bson.M, set bson.M, out any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := c.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts)
	return translate(res.Decode(out))
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter bson.M, out any) error {
	return translate(c.coll.FindOneAndDelete(ctx, filter).Decode(out))
}

// translate 把驱动错误归一到本包的哨兵错误
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", ErrDuplicate, err.Error())
	default:
		return err
	}
}
