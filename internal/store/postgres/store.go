package postgres

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

type Options struct {
	// Timeout bounds every standalone query and every transaction as a whole.
	Timeout time.Duration
	// MaxRetries is how many times a transaction is replayed after a
	// serialization failure or deadlock.
	MaxRetries int
	Logger     *slog.Logger
}

type Store struct {
	reader
	db   *bun.DB
	opts Options
	log  *slog.Logger
}

var _ store.Store = (*Store)(nil)

func NewStore(db *bun.DB, opts Options) *Store {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		reader: reader{db: db, timeout: opts.Timeout},
		db:     db,
		opts:   opts,
		log:    log.With(slog.String("component", "store.postgres")),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return mapErr(s.db.PingContext(ctx))
}

func (s *Store) CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if p.Status == "" {
		p.Status = domain.ProviderAvailable
	}
	if _, err := s.db.NewInsert().Model(&p).Exec(ctx); err != nil {
		return domain.Provider{}, mapErr(err)
	}
	return p, nil
}

func (s *Store) CreateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if svc.Price == "" {
		svc.Price = "0"
	}
	if _, err := s.db.NewInsert().Model(&svc).Exec(ctx); err != nil {
		return domain.Service{}, mapErr(err)
	}
	return svc, nil
}

func (s *Store) InProviderTransaction(ctx context.Context, providerIDs []uuid.UUID, fn store.TxFunc) error {
	ids := slices.Clone(providerIDs)
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	ids = slices.Compact(ids)

	return s.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, id := range ids {
			if err := advisoryLock(ctx, tx, providerLockKey(id), false); err != nil {
				return err
			}
		}
		return nil
	}, fn)
}

func (s *Store) InProviderDayTransaction(ctx context.Context, providerID uuid.UUID, date time.Time, fn store.TxFunc) error {
	return s.inTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := advisoryLock(ctx, tx, providerLockKey(providerID), true); err != nil {
			return err
		}
		return advisoryLock(ctx, tx, providerDayLockKey(providerID, date), false)
	}, fn)
}

func (s *Store) inTx(ctx context.Context, lock func(ctx context.Context, tx bun.Tx) error, fn store.TxFunc) error {
	for attempt := 0; ; attempt++ {
		err := s.runTx(ctx, lock, fn)
		if !errors.Is(err, errSerialization) {
			return err
		}
		if attempt >= s.opts.MaxRetries {
			return domain.StoreUnavailable(err)
		}
		s.log.Debug("retrying transaction", slog.Int("attempt", attempt+1), slog.Any("err", err))
	}
}

func (s *Store) runTx(ctx context.Context, lock func(ctx context.Context, tx bun.Tx) error, fn store.TxFunc) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lock(ctx, tx); err != nil {
			return mapErr(err)
		}
		return fn(ctx, &pgTx{reader: reader{db: tx}})
	})
	if mapped, ok := classify(err); ok {
		return mapped
	}
	return err
}

func advisoryLock(ctx context.Context, tx bun.Tx, key string, shared bool) error {
	fn := "pg_advisory_xact_lock"
	if shared {
		fn = "pg_advisory_xact_lock_shared"
	}
	_, err := tx.NewRaw("SELECT "+fn+"(hashtext(?))", key).Exec(ctx)
	return err
}

func providerLockKey(id uuid.UUID) string {
	return "provider:" + id.String()
}

func providerDayLockKey(id uuid.UUID, date time.Time) string {
	return "provider-day:" + id.String() + ":" + domain.FormatDate(date)
}
