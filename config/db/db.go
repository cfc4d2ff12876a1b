package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"PatientRegistry/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	Client *mongo.Client
	DB     *mongo.Database
)

/*
* Connect the client and ping the primary before handing the database out
* The package level DB is what OpenCollections reads from
 */
func Connect(ctx context.Context, uri, name string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	Client = client
	DB = client.Database(name)
	zap.L().Info("connected to mongo", zap.String("database", name))
	return DB, nil
}

func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}

func OpenCollections(name string) *mongo.Collection {
	return DB.Collection(name)
}

// FindOne decodes the first match into result, mapping no match to util.ErrRecordNotFound.
func FindOne(ctx context.Context, coll *mongo.Collection, filter any, result any, opts ...*options.FindOneOptions) error {
	err := coll.FindOne(ctx, filter, opts...).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return util.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("find one in %s: %w", coll.Name(), err)
	}
	return nil
}

func FindAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func CreateOne(ctx context.Context, coll *mongo.Collection, doc any) (*mongo.InsertOneResult, error) {
	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	return res, nil
}

func UpdateOne(ctx context.Context, coll *mongo.Collection, filter, update any) (*mongo.UpdateResult, error) {
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", coll.Name(), err)
	}
	return res, nil
}

// FindOneAndUpdate applies update and decodes the document as it is after the write.
func FindOneAndUpdate(ctx context.Context, coll *mongo.Collection, filter, update any, result any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return util.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("find and update %s: %w", coll.Name(), err)
	}
	return nil
}
