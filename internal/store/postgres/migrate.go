package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"barberpro/backend/internal/store/postgres/migrations"
)

type MigrationStatus struct {
	Name       string
	Comment    string
	Applied    bool
	MigratedAt time.Time
}

type Migrator struct {
	m *migrate.Migrator
}

func NewMigrator(db *bun.DB) *Migrator {
	return &Migrator{m: migrate.NewMigrator(db, migrations.Migrations)}
}

// Up applies every pending migration as one group and returns their names.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if err := m.m.Init(ctx); err != nil {
		return nil, err
	}
	if err := m.m.Lock(ctx); err != nil {
		return nil, err
	}
	defer m.m.Unlock(ctx) //nolint:errcheck

	group, err := m.m.Migrate(ctx)
	if err != nil {
		return nil, err
	}
	if group.IsZero() {
		return nil, nil
	}
	names := make([]string, 0, len(group.Migrations))
	for _, mig := range group.Migrations {
		names = append(names, mig.Name)
	}
	return names, nil
}

// Down rolls back the most recently applied group.
func (m *Migrator) Down(ctx context.Context) ([]string, error) {
	if err := m.m.Init(ctx); err != nil {
		return nil, err
	}
	if err := m.m.Lock(ctx); err != nil {
		return nil, err
	}
	defer m.m.Unlock(ctx) //nolint:errcheck

	group, err := m.m.Rollback(ctx)
	if err != nil {
		return nil, err
	}
	if group.IsZero() {
		return nil, nil
	}
	names := make([]string, 0, len(group.Migrations))
	for _, mig := range group.Migrations {
		names = append(names, mig.Name)
	}
	return names, nil
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.m.Init(ctx); err != nil {
		return nil, err
	}
	ms, err := m.m.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(ms))
	for _, mig := range ms {
		out = append(out, MigrationStatus{
			Name:       mig.Name,
			Comment:    mig.Comment,
			Applied:    mig.GroupID > 0,
			MigratedAt: mig.MigratedAt,
		})
	}
	return out, nil
}
