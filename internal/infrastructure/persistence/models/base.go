package models

import (
	"time"

	"github.com/backoffice/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// VersionedRow carries the identity, timestamps and optimistic-lock version
// shared by the plan and installment tables.
type VersionedRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

func versionedRowOf(root shared.BaseAggregateRoot) VersionedRow {
	return VersionedRow{
		ID:        root.ID,
		CreatedAt: root.CreatedAt,
		UpdatedAt: root.UpdatedAt,
		Version:   root.Version,
	}
}

// aggregateRoot rebuilds the domain root; loaded aggregates carry no pending events.
func (r VersionedRow) aggregateRoot() shared.BaseAggregateRoot {
	root := shared.BaseAggregateRoot{Version: r.Version}
	root.ID, root.CreatedAt, root.UpdatedAt = r.ID, r.CreatedAt, r.UpdatedAt
	return root
}
