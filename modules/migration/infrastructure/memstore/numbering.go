package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

type sequenceKey struct {
	kind   domain.Kind
	period int
}

// Allocator hands out yearly document sequences, mirroring the SQL allocator.
type Allocator struct {
	mu    sync.Mutex
	last  map[sequenceKey]int64
	calls int
	err   error
}

func NewAllocator() *Allocator {
	return &Allocator{last: make(map[sequenceKey]int64)}
}

// FailWith makes every following Allocate call return err.
func (a *Allocator) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

func (a *Allocator) Allocate(_ context.Context, kind domain.Kind, asOf time.Time) (domain.Allocation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.err != nil {
		return domain.Allocation{}, a.err
	}
	key := sequenceKey{kind: kind, period: asOf.UTC().Year()}
	a.last[key]++
	seq := a.last[key]
	return domain.Allocation{
		Number:   domain.FormatDocumentNumber(kind, key.period, seq),
		Sequence: seq,
	}, nil
}

// Calls returns how many allocations were attempted.
func (a *Allocator) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
