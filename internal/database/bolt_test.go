package database

import (
	"context"
	"path/filepath"
	"testing"

	"inventoryKeeper/internal/catalog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "data", "catalog.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) catalog.Store {
		return newTestBoltStore(t)
	})
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := NewBoltStore(path, nil)
	require.NoError(t, err)
	id, err := s.Create(ctx, "Harina PAN", decimal.RequireFromString("1.10"), "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path, nil)
	require.NoError(t, err)
	defer s.Close()

	p, ok, err := s.FindByName(ctx, "Harina PAN")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, p.ID)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("1.1")))

	next, err := s.Create(ctx, "Otro", decimal.Zero, "")
	require.NoError(t, err)
	assert.Greater(t, next, id)
}

func TestBoltStore_NamePrefixDoesNotMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)

	_, err := s.Create(ctx, "Pan Dulce", decimal.NewFromInt(1), "")
	require.NoError(t, err)

	_, ok, err := s.FindByName(ctx, "Pan")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoltStore_InvalidUTF8NameSurvivesDeleteAndRecreate(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)

	first, err := s.Create(ctx, "\xffPan", decimal.NewFromInt(1), "")
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, first))

	second, err := s.Create(ctx, "\xffPan", decimal.NewFromInt(2), "")
	require.NoError(t, err)

	p, ok, err := s.FindByName(ctx, "\xffPan")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, p.ID)
	assert.Equal(t, "\uFFFDPan", p.Name)

	// The delete must have dropped the index entry of the first product.
	err = s.db.View(func(tx *bbolt.Tx) error {
		assert.Nil(t, tx.Bucket(byNameBucket).Get(nameKey("\uFFFDPan", first)))
		return nil
	})
	require.NoError(t, err)
}

func TestBoltStore_FindByNameSkipsDanglingIndexEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestBoltStore(t)

	id, err := s.Create(ctx, "Arroz", decimal.NewFromInt(1), "")
	require.NoError(t, err)

	// An index entry with a lower id and no product behind it.
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(byNameBucket).Put(nameKey("Arroz", 0), nil)
	})
	require.NoError(t, err)

	p, ok, err := s.FindByName(ctx, "Arroz")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, p.ID)
}
