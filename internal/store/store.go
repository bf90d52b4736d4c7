// Package store persists extracted firms and their authorizations. Two
// backends implement the same interface: SQLite for the single-file local
// workflow and Postgres for a shared database.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/equinoxe-ovh/regafind/internal/model"
)

// ErrNotFound is returned when a firm is absent from the store.
var ErrNotFound = eris.New("store: firm not found")

// Store is the persistence interface for the extraction pipeline. A firm and
// its activity/service sets are saved as a unit; saving an existing CIB
// replaces the previous record entirely.
type Store interface {
	SaveFirm(ctx context.Context, firm *model.Firm) error
	GetFirm(ctx context.Context, cib int) (*model.Firm, error)
	ListFirms(ctx context.Context) ([]*model.Firm, error)

	// RecordRun stores the audit row for one completed ingest batch.
	RecordRun(ctx context.Context, run model.Run) error

	Migrate(ctx context.Context) error
	Close() error
}
