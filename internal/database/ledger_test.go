package database

import (
	"errors"
	"fmt"
	"testing"

	"inventoryKeeper/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// importWith drives the ledger the way MongoStore.Batch does, against a fake
// server that rejects the writes for the names in reject. It returns the
// names committed by the final attempt and the ones the callback skipped.
func importWith(t *testing.T, names []string, reject map[string]error) (committed, skipped []string, attempts int, err error) {
	t.Helper()
	ledger := newWriteLedger()
	err = ledger.run(func() error {
		attempts++
		ledger.begin()
		var pending []string
		skipped = nil
		for _, n := range names {
			n := n
			werr := ledger.do(func() error {
				if e, ok := reject[n]; ok {
					return e
				}
				pending = append(pending, n)
				return nil
			})
			if werr != nil {
				skipped = append(skipped, n)
			}
		}
		if err := ledger.settle(nil); err != nil {
			return err
		}
		committed = pending
		return nil
	})
	return committed, skipped, attempts, err
}

func TestWriteLedger_ServerErrorCostsOnlyThatRecord(t *testing.T) {
	dup := errors.New("E11000 duplicate key error collection: inventory.products")
	committed, skipped, attempts, err := importWith(t,
		[]string{"Arroz", "Duplicado", "Sal", "Azucar"},
		map[string]error{"Duplicado": dup},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, []string{"Arroz", "Sal", "Azucar"}, committed)
	assert.Equal(t, []string{"Duplicado"}, skipped)
}

func TestWriteLedger_ClientSideErrorsDoNotRetry(t *testing.T) {
	committed, skipped, attempts, err := importWith(t,
		[]string{"Arroz", "Vacio", "Fantasma"},
		map[string]error{
			"Vacio":    fmt.Errorf("%w: product name cannot be empty", catalog.ErrValidation),
			"Fantasma": fmt.Errorf("%w: id 9", catalog.ErrNotFound),
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, []string{"Arroz"}, committed)
	assert.Equal(t, []string{"Vacio", "Fantasma"}, skipped)
}

func TestWriteLedger_SeveralServerErrors(t *testing.T) {
	boom := errors.New("write conflict")
	committed, skipped, attempts, err := importWith(t,
		[]string{"A", "B", "C", "D", "E"},
		map[string]error{"B": boom, "D": boom},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []string{"A", "C", "E"}, committed)
	assert.Equal(t, []string{"B", "D"}, skipped)
}

func TestWriteLedger_CallbackErrorIsReturned(t *testing.T) {
	stop := errors.New("cancelled")
	ledger := newWriteLedger()
	attempts := 0
	err := ledger.run(func() error {
		attempts++
		ledger.begin()
		_ = ledger.do(func() error { return errors.New("server down") })
		return ledger.settle(stop)
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, attempts)
}

func TestWriteLedger_PropagatedWriteErrorStillRetries(t *testing.T) {
	dup := errors.New("duplicate key")
	ledger := newWriteLedger()
	attempts := 0
	err := ledger.run(func() error {
		attempts++
		ledger.begin()
		return ledger.settle(ledger.do(func() error { return dup }))
	})
	// The second attempt gets the stored error client-side and gives it back
	// as the batch result.
	assert.ErrorIs(t, err, dup)
	assert.Equal(t, 2, attempts)
}

func TestWriteLedger_GivesUp(t *testing.T) {
	ledger := newWriteLedger()
	err := ledger.run(func() error {
		ledger.begin()
		// A callback that never repeats itself keeps failing new writes.
		ledger.next = len(ledger.failed)
		_ = ledger.do(func() error { return errors.New("unreachable") })
		return ledger.settle(nil)
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, errRetryBatch)
	assert.Len(t, ledger.failed, maxBatchRetries+1)
}
