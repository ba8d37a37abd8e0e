package database

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inventoryKeeper/internal/catalog"
	"inventoryKeeper/internal/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	productsBucket = []byte("products")
	// byName keys are name + 0x00 + big-endian id, so a prefix seek lands on
	// the lowest id for a name.
	byNameBucket = []byte("products_by_name")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BoltStore keeps the catalog in a single local bbolt file.
type BoltStore struct {
	db  *bbolt.DB
	log *zap.Logger
}

func NewBoltStore(path string, log *zap.Logger) (*BoltStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create store directory: %v", catalog.ErrIO, err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open catalog %s: %v", catalog.ErrIO, path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{productsBucket, byNameBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to initialise buckets: %v", catalog.ErrIO, err)
	}

	log.Debug("opened bolt catalog", zap.String("path", path))
	return &BoltStore{db: db, log: log}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Create(ctx context.Context, name string, price decimal.Decimal, imageRef string) (int64, error) {
	var id int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		id, err = boltCreate(tx, name, price, imageRef)
		return err
	})
	return id, err
}

func (s *BoltStore) Delete(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return boltDelete(tx, id)
	})
}

func (s *BoltStore) List(ctx context.Context, filter string) ([]models.Product, error) {
	var products []models.Product
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		products, err = boltList(tx, filter)
		return err
	})
	return products, err
}

func (s *BoltStore) FindByName(ctx context.Context, name string) (models.Product, bool, error) {
	var (
		product models.Product
		found   bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		product, found, err = boltFindByName(tx, name)
		return err
	})
	return product, found, err
}

func (s *BoltStore) UpdatePriceAndImage(ctx context.Context, id int64, price decimal.Decimal, imageRef string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return boltUpdate(tx, id, price, imageRef)
	})
}

// Batch runs fn inside one read-write transaction.
func (s *BoltStore) Batch(ctx context.Context, fn func(tx catalog.Store) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTxStore{tx: tx})
	})
}

// boltTxStore is the Store view handed to Batch callbacks.
type boltTxStore struct {
	tx *bbolt.Tx
}

func (t *boltTxStore) Create(ctx context.Context, name string, price decimal.Decimal, imageRef string) (int64, error) {
	return boltCreate(t.tx, name, price, imageRef)
}

func (t *boltTxStore) Delete(ctx context.Context, id int64) error {
	return boltDelete(t.tx, id)
}

func (t *boltTxStore) List(ctx context.Context, filter string) ([]models.Product, error) {
	return boltList(t.tx, filter)
}

func (t *boltTxStore) FindByName(ctx context.Context, name string) (models.Product, bool, error) {
	return boltFindByName(t.tx, name)
}

func (t *boltTxStore) UpdatePriceAndImage(ctx context.Context, id int64, price decimal.Decimal, imageRef string) error {
	return boltUpdate(t.tx, id, price, imageRef)
}

func (t *boltTxStore) Batch(ctx context.Context, fn func(tx catalog.Store) error) error {
	return fn(t)
}

func (t *boltTxStore) Close() error { return nil }

func boltCreate(tx *bbolt.Tx, name string, price decimal.Decimal, imageRef string) (int64, error) {
	name, err := catalog.NormalizeName(name)
	if err != nil {
		return 0, err
	}

	products := tx.Bucket(productsBucket)
	seq, err := products.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate product id: %w", err)
	}

	product := models.Product{
		ID:       int64(seq),
		Name:     name,
		Price:    catalog.NormalizePrice(price),
		ImageRef: imageRef,
	}
	if err := boltPut(tx, product); err != nil {
		return 0, err
	}
	if err := tx.Bucket(byNameBucket).Put(nameKey(name, product.ID), nil); err != nil {
		return 0, fmt.Errorf("failed to index product %d: %w", product.ID, err)
	}
	return product.ID, nil
}

func boltDelete(tx *bbolt.Tx, id int64) error {
	product, ok, err := boltGet(tx, id)
	if err != nil || !ok {
		return err
	}
	if err := tx.Bucket(productsBucket).Delete(idKey(id)); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return tx.Bucket(byNameBucket).Delete(nameKey(product.Name, id))
}

func boltList(tx *bbolt.Tx, filter string) ([]models.Product, error) {
	products := []models.Product{}
	err := tx.Bucket(productsBucket).ForEach(func(_, v []byte) error {
		var p models.Product
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("failed to decode product: %w", err)
		}
		if catalog.MatchesFilter(p.Name, filter) {
			products = append(products, p)
		}
		return nil
	})
	return products, err
}

// boltFindByName walks the index entries for name in id order and returns
// the first one that still has a product behind it.
func boltFindByName(tx *bbolt.Tx, name string) (models.Product, bool, error) {
	name = catalog.LookupName(name)
	prefix := append([]byte(name), 0)
	c := tx.Bucket(byNameBucket).Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
		if len(k) != len(prefix)+8 {
			continue
		}
		id := int64(binary.BigEndian.Uint64(k[len(prefix):]))
		p, ok, err := boltGet(tx, id)
		if err != nil || ok {
			return p, ok, err
		}
	}
	return models.Product{}, false, nil
}

func boltUpdate(tx *bbolt.Tx, id int64, price decimal.Decimal, imageRef string) error {
	product, ok, err := boltGet(tx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: id %d", catalog.ErrNotFound, id)
	}
	product.Price = catalog.NormalizePrice(price)
	if imageRef != "" {
		product.ImageRef = imageRef
	}
	return boltPut(tx, product)
}

func boltGet(tx *bbolt.Tx, id int64) (models.Product, bool, error) {
	v := tx.Bucket(productsBucket).Get(idKey(id))
	if v == nil {
		return models.Product{}, false, nil
	}
	var p models.Product
	if err := json.Unmarshal(v, &p); err != nil {
		return models.Product{}, false, fmt.Errorf("failed to decode product %d: %w", id, err)
	}
	return p, true, nil
}

func boltPut(tx *bbolt.Tx, p models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode product %d: %w", p.ID, err)
	}
	if err := tx.Bucket(productsBucket).Put(idKey(p.ID), data); err != nil {
		return fmt.Errorf("failed to store product %d: %w", p.ID, err)
	}
	return nil
}

func idKey(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func nameKey(name string, id int64) []byte {
	k := make([]byte, 0, len(name)+9)
	k = append(k, name...)
	k = append(k, 0)
	return append(k, idKey(id)...)
}
