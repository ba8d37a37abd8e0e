package database

import (
	"errors"
	"fmt"

	"inventoryKeeper/internal/catalog"
)

// maxBatchRetries bounds how many server-side failures one batch absorbs
// before it gives up as a whole.
const maxBatchRetries = 64

var (
	// errBatchAborted is returned by calls made after the server already
	// aborted the transaction.
	errBatchAborted = errors.New("transaction aborted by an earlier write")
	// errRetryBatch ends a transaction attempt that has to run again.
	errRetryBatch = errors.New("batch must be retried")
)

// writeLedger numbers the store calls of a batch attempt. A call that fails
// on the server is remembered by position; later attempts get its error back
// without sending it again. Callbacks run the same calls in the same order on
// every attempt, since each attempt starts from the same committed state.
type writeLedger struct {
	failed  map[int]error
	next    int
	aborted error
	last    error
}

func newWriteLedger() *writeLedger {
	return &writeLedger{failed: make(map[int]error)}
}

// begin resets the per-attempt state.
func (l *writeLedger) begin() {
	l.next = 0
	l.aborted = nil
}

func (l *writeLedger) do(fn func() error) error {
	op := l.next
	l.next++
	if err, ok := l.failed[op]; ok {
		return err
	}
	if l.aborted != nil {
		return fmt.Errorf("%w: %v", errBatchAborted, l.aborted)
	}

	err := fn()
	if err != nil && abortsTransaction(err) {
		l.failed[op] = err
		l.aborted = err
		l.last = err
	}
	return err
}

// settle maps the callback's result to the transaction's result.
func (l *writeLedger) settle(err error) error {
	if l.aborted == nil {
		return err
	}
	if err == nil || errors.Is(err, errBatchAborted) || errors.Is(err, l.aborted) {
		return errRetryBatch
	}
	return err
}

// run calls attempt until it stops asking for a retry.
func (l *writeLedger) run(attempt func() error) error {
	for i := 0; ; i++ {
		err := attempt()
		if !errors.Is(err, errRetryBatch) {
			return err
		}
		if i >= maxBatchRetries {
			return fmt.Errorf("batch gave up after %d failed writes: %w", len(l.failed), l.last)
		}
	}
}

// abortsTransaction reports whether err reached the server. Validation and
// not-found errors are raised client-side and leave the transaction usable.
func abortsTransaction(err error) bool {
	return !errors.Is(err, catalog.ErrValidation) && !errors.Is(err, catalog.ErrNotFound)
}
