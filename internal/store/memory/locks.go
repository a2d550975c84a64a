package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"barberpro/backend/internal/domain"
)

// exclusiveWeight is the full capacity of a provider semaphore. Day
// transactions take a weight of one, admin transactions take all of it.
const exclusiveWeight = 1 << 16

type dayKey struct {
	provider uuid.UUID
	date     string
}

type lockTable struct {
	mu        sync.Mutex
	providers map[uuid.UUID]*semaphore.Weighted
	days      map[dayKey]*semaphore.Weighted
}

func newLockTable() *lockTable {
	return &lockTable{
		providers: make(map[uuid.UUID]*semaphore.Weighted),
		days:      make(map[dayKey]*semaphore.Weighted),
	}
}

func (t *lockTable) provider(id uuid.UUID) *semaphore.Weighted {
	t.mu.Lock()
	defer t.mu.Unlock()
	sem, ok := t.providers[id]
	if !ok {
		sem = semaphore.NewWeighted(exclusiveWeight)
		t.providers[id] = sem
	}
	return sem
}

func (t *lockTable) day(id uuid.UUID, date time.Time) *semaphore.Weighted {
	key := dayKey{provider: id, date: domain.FormatDate(date)}
	t.mu.Lock()
	defer t.mu.Unlock()
	sem, ok := t.days[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		t.days[key] = sem
	}
	return sem
}

// acquire waits for n units of sem. A lock wait that outlives its deadline is
// reported as an unavailable store, matching the Postgres statement timeout.
func acquire(ctx context.Context, sem *semaphore.Weighted, n int64) error {
	err := ctx.Err()
	if err == nil {
		err = sem.Acquire(ctx, n)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.StoreUnavailable(err)
		}
		return err
	}
	return nil
}
