package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const countersCollection = "counters"

type productDoc struct {
	ID       int64                `bson:"_id"`
	Name     string               `bson:"name"`
	Price    primitive.Decimal128 `bson:"price"`
	ImageRef string               `bson:"image_ref"`
}

// MongoStore keeps the catalog in a MongoDB collection. Batch needs a
// replica set because it runs inside a multi-document transaction. Ids come
// from a counter document that is bumped outside any transaction, so an
// aborted batch leaves a gap instead of handing an id out twice.
type MongoStore struct {
	Client     *mongo.Client
	Database   *mongo.Database
	collection *mongo.Collection
	log        *zap.Logger
}

func NewMongoStore(uri, dbName, collectionName string, log *zap.Logger) (*MongoStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(dbName)
	coll := db.Collection(collectionName)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create name index: %w", err)
	}

	log.Info("connected to MongoDB", zap.String("database", dbName), zap.String("collection", collectionName))

	return &MongoStore{
		Client:     client,
		Database:   db,
		collection: coll,
		log:        log,
	}, nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.Client.Disconnect(ctx)
}

func (m *MongoStore) Create(ctx context.Context, name string, price decimal.Decimal, imageRef string) (int64, error) {
	return m.create(ctx, ctx, name, price, imageRef)
}

// create validates everything that can fail client-side before the first
// server round trip. The id is allocated with idCtx.
func (m *MongoStore) create(ctx, idCtx context.Context, name string, price decimal.Decimal, imageRef string) (int64, error) {
	name, err := catalog.NormalizeName(name)
	if err != nil {
		return 0, err
	}
	d128, err := toDecimal128(catalog.NormalizePrice(price))
	if err != nil {
		return 0, err
	}

	id, err := m.nextID(idCtx)
	if err != nil {
		return 0, err
	}

	doc := productDoc{ID: id, Name: name, Price: d128, ImageRef: imageRef}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}
	return id, nil
}

func (m *MongoStore) Delete(ctx context.Context, id int64) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

func (m *MongoStore) List(ctx context.Context, filter string) ([]models.Product, error) {
	query := bson.M{}
	if filter != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter), Options: "i"}
	}

	cursor, err := m.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var doc productDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode product: %w", err)
		}
		p, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return products, nil
}

func (m *MongoStore) FindByName(ctx context.Context, name string) (models.Product, bool, error) {
	var doc productDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	err := m.collection.FindOne(ctx, bson.M{"name": catalog.LookupName(name)}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, false, nil
	}
	if err != nil {
		return models.Product{}, false, fmt.Errorf("failed to find product %q: %w", name, err)
	}
	p, err := doc.toModel()
	return p, err == nil, err
}

func (m *MongoStore) UpdatePriceAndImage(ctx context.Context, id int64, price decimal.Decimal, imageRef string) error {
	d128, err := toDecimal128(catalog.NormalizePrice(price))
	if err != nil {
		return err
	}
	set := bson.M{"price": d128}
	if imageRef != "" {
		set["image_ref"] = imageRef
	}

	res, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: id %d", catalog.ErrNotFound, id)
	}
	return nil
}

// Batch runs fn inside one transaction. The server aborts a transaction on
// the first failed write, so a failed call is remembered and fn is run again
// in a fresh transaction where that call fails without reaching the server.
// Only the record behind it is lost.
func (m *MongoStore) Batch(ctx context.Context, fn func(tx catalog.Store) error) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	ledger := newWriteLedger()
	return ledger.run(func() error {
		_, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			ledger.begin()
			err := fn(&mongoSessionStore{MongoStore: m, sc: sc, outer: ctx, ledger: ledger})
			return nil, ledger.settle(err)
		})
		if errors.Is(err, errRetryBatch) {
			m.log.Warn("write failed inside batch, retrying without it",
				zap.Int("failed_writes", len(ledger.failed)),
				zap.Error(ledger.last))
		}
		return err
	})
}

func (m *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := m.Database.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": m.collection.Name()},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate product id: %w", err)
	}
	return counter.Seq, nil
}

// mongoSessionStore routes every call through the transaction's session
// context, whatever context the caller passes, and through the batch ledger.
type mongoSessionStore struct {
	*MongoStore
	sc     mongo.SessionContext
	outer  context.Context
	ledger *writeLedger
}

func (s *mongoSessionStore) Create(_ context.Context, name string, price decimal.Decimal, imageRef string) (int64, error) {
	var id int64
	err := s.ledger.do(func() error {
		var err error
		id, err = s.MongoStore.create(s.sc, s.outer, name, price, imageRef)
		return err
	})
	return id, err
}

func (s *mongoSessionStore) Delete(_ context.Context, id int64) error {
	return s.ledger.do(func() error {
		return s.MongoStore.Delete(s.sc, id)
	})
}

func (s *mongoSessionStore) List(_ context.Context, filter string) ([]models.Product, error) {
	var products []models.Product
	err := s.ledger.do(func() error {
		var err error
		products, err = s.MongoStore.List(s.sc, filter)
		return err
	})
	return products, err
}

func (s *mongoSessionStore) FindByName(_ context.Context, name string) (models.Product, bool, error) {
	var (
		product models.Product
		found   bool
	)
	err := s.ledger.do(func() error {
		var err error
		product, found, err = s.MongoStore.FindByName(s.sc, name)
		return err
	})
	return product, found, err
}

func (s *mongoSessionStore) UpdatePriceAndImage(_ context.Context, id int64, price decimal.Decimal, imageRef string) error {
	return s.ledger.do(func() error {
		return s.MongoStore.UpdatePriceAndImage(s.sc, id, price, imageRef)
	})
}

func (s *mongoSessionStore) Batch(_ context.Context, fn func(tx catalog.Store) error) error {
	return fn(s)
}

func (s *mongoSessionStore) Close() error { return nil }

func (d productDoc) toModel() (models.Product, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to decode price of product %d: %w", d.ID, err)
	}
	return models.Product{ID: d.ID, Name: d.Name, Price: price, ImageRef: d.ImageRef}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("%w: failed to encode price %s: %v", catalog.ErrValidation, d, err)
	}
	return v, nil
}
