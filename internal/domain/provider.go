package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AvailabilityStatus string

const (
	ProviderAvailable   AvailabilityStatus = "available"
	ProviderBusy        AvailabilityStatus = "busy"
	ProviderUnavailable AvailabilityStatus = "unavailable"
)

func (s AvailabilityStatus) Valid() bool {
	switch s {
	case ProviderAvailable, ProviderBusy, ProviderUnavailable:
		return true
	}
	return false
}

type Provider struct {
	bun.BaseModel `bun:"table:providers"`

	ID          uuid.UUID          `bun:"id,pk,type:uuid"`
	DisplayName string             `bun:"display_name,notnull"`
	Status      AvailabilityStatus `bun:"availability_status,notnull"`
	CreatedAt   time.Time          `bun:"created_at,notnull"`
	UpdatedAt   time.Time          `bun:"updated_at,notnull"`
}

func (p *Provider) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stamp(query, &p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// stamp fills ids and audit timestamps the way every table expects them.
func stamp(query bun.Query, id *uuid.UUID, createdAt, updatedAt *time.Time) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if err := EnsureID(id); err != nil {
			return err
		}
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		*updatedAt = now
	}
	return nil
}

// EnsureID assigns a time-ordered id when none is set.
func EnsureID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	v, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = v
	return nil
}
