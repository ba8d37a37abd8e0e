package database

import (
	"context"
	"errors"
	"testing"

	"inventoryKeeper/internal/catalog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every catalog.Store driver must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) catalog.Store) {
	ctx := context.Background()

	t.Run("create then find by name", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Create(ctx, "Harina PAN", decimal.RequireFromString("1.25"), "/tmp/harina.jpg")
		require.NoError(t, err)
		assert.NotZero(t, id)

		p, ok, err := s.FindByName(ctx, "Harina PAN")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, id, p.ID)
		assert.Equal(t, "Harina PAN", p.Name)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("1.25")))
		assert.Equal(t, "/tmp/harina.jpg", p.ImageRef)
	})

	t.Run("empty name is a validation error", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, "   ", decimal.NewFromInt(1), "")
		assert.True(t, errors.Is(err, catalog.ErrValidation))

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("negative price is stored as zero", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, "Arroz", decimal.NewFromInt(-4), "")
		require.NoError(t, err)
		p, ok, err := s.FindByName(ctx, "Arroz")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, p.Price.IsZero())
	})

	t.Run("large high-precision prices round-trip exactly", func(t *testing.T) {
		s := newStore(t)
		price := decimal.RequireFromString("12345678901.123456")
		id, err := s.Create(ctx, "Lingote", price, "")
		require.NoError(t, err)

		p, ok, err := s.FindByName(ctx, "Lingote")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, p.Price.Equal(price), "got %s", p.Price)

		updated := decimal.RequireFromString("0.000001")
		require.NoError(t, s.UpdatePriceAndImage(ctx, id, updated, ""))
		p, _, err = s.FindByName(ctx, "Lingote")
		require.NoError(t, err)
		assert.True(t, p.Price.Equal(updated), "got %s", p.Price)
	})

	t.Run("invalid UTF-8 name is found again after delete and re-create", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Create(ctx, "Az\xfacar", decimal.NewFromInt(1), "")
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, first))
		second, err := s.Create(ctx, "Az\xfacar", decimal.NewFromInt(1), "")
		require.NoError(t, err)

		for _, name := range []string{"Az\xfacar", "Az\uFFFDcar"} {
			p, ok, err := s.FindByName(ctx, name)
			require.NoError(t, err)
			require.True(t, ok, name)
			assert.Equal(t, second, p.ID)
			assert.Equal(t, "Az\uFFFDcar", p.Name)
		}
	})

	t.Run("ids are fresh and not reused after delete", func(t *testing.T) {
		s := newStore(t)
		a, err := s.Create(ctx, "A", decimal.Zero, "")
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, a))
		b, err := s.Create(ctx, "B", decimal.Zero, "")
		require.NoError(t, err)
		assert.Greater(t, b, a)
	})

	t.Run("delete removes record and missing id is a no-op", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Create(ctx, "Cafe", decimal.NewFromInt(5), "")
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, id))
		require.NoError(t, s.Delete(ctx, id))
		require.NoError(t, s.Delete(ctx, 999999))

		_, ok, err := s.FindByName(ctx, "Cafe")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("list filters case-insensitively in creation order", func(t *testing.T) {
		s := newStore(t)
		for _, n := range []string{"Queso Blanco", "Leche", "queso amarillo", "Pan"} {
			_, err := s.Create(ctx, n, decimal.NewFromInt(1), "")
			require.NoError(t, err)
		}

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "Queso Blanco", all[0].Name)
		assert.Equal(t, "Pan", all[3].Name)

		cheese, err := s.List(ctx, "QUESO")
		require.NoError(t, err)
		require.Len(t, cheese, 2)
		assert.Equal(t, "Queso Blanco", cheese[0].Name)
		assert.Equal(t, "queso amarillo", cheese[1].Name)

		none, err := s.List(ctx, "%")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("find by name picks lowest id among duplicates", func(t *testing.T) {
		s := newStore(t)
		first, err := s.Create(ctx, "Azucar", decimal.NewFromInt(1), "")
		require.NoError(t, err)
		_, err = s.Create(ctx, "Azucar", decimal.NewFromInt(2), "")
		require.NoError(t, err)

		p, ok, err := s.FindByName(ctx, "Azucar")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, first, p.ID)

		_, ok, err = s.FindByName(ctx, "azucar")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("update keeps image when new ref is empty", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Create(ctx, "Aceite", decimal.NewFromInt(3), "http://example.com/aceite.jpg")
		require.NoError(t, err)

		require.NoError(t, s.UpdatePriceAndImage(ctx, id, decimal.RequireFromString("3.5"), ""))
		p, _, err := s.FindByName(ctx, "Aceite")
		require.NoError(t, err)
		assert.True(t, p.Price.Equal(decimal.RequireFromString("3.5")))
		assert.Equal(t, "http://example.com/aceite.jpg", p.ImageRef)

		require.NoError(t, s.UpdatePriceAndImage(ctx, id, decimal.NewFromInt(4), "/photos/aceite.jpg"))
		p, _, err = s.FindByName(ctx, "Aceite")
		require.NoError(t, err)
		assert.Equal(t, "/photos/aceite.jpg", p.ImageRef)
	})

	t.Run("update of missing id reports not found", func(t *testing.T) {
		s := newStore(t)
		err := s.UpdatePriceAndImage(ctx, 424242, decimal.NewFromInt(1), "")
		assert.True(t, errors.Is(err, catalog.ErrNotFound))
	})

	t.Run("batch commits together", func(t *testing.T) {
		s := newStore(t)
		err := s.Batch(ctx, func(tx catalog.Store) error {
			if _, err := tx.Create(ctx, "Uno", decimal.NewFromInt(1), ""); err != nil {
				return err
			}
			_, ok, err := tx.FindByName(ctx, "Uno")
			if err != nil {
				return err
			}
			assert.True(t, ok, "writes are visible inside the batch")
			_, err = tx.Create(ctx, "Dos", decimal.NewFromInt(2), "")
			return err
		})
		require.NoError(t, err)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("batch rolls back on error", func(t *testing.T) {
		s := newStore(t)
		boom := errors.New("boom")
		err := s.Batch(ctx, func(tx catalog.Store) error {
			if _, err := tx.Create(ctx, "Uno", decimal.NewFromInt(1), ""); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("failed statement inside batch does not poison the rest", func(t *testing.T) {
		s := newStore(t)
		err := s.Batch(ctx, func(tx catalog.Store) error {
			err := tx.UpdatePriceAndImage(ctx, 777777, decimal.NewFromInt(1), "")
			assert.Error(t, err)
			_, err = tx.Create(ctx, "Tres", decimal.NewFromInt(3), "")
			return err
		})
		require.NoError(t, err)

		_, ok, err := s.FindByName(ctx, "Tres")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
