// Package store persists contract records. Three backends share one
// interface: an in-memory map for tests and single-process use, Redis for
// lightweight deployments, and Postgres for durable ones.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/contractintel/contract-intel/internal/common"
	"github.com/contractintel/contract-intel/internal/entity"
)

// ErrNotFound chains the application-wide not-found sentinel, so callers can
// match either this or common.ErrNotFound.
var ErrNotFound = common.WrapError(common.ErrNotFound, "contract")

// ContractStore is the persistence boundary of the pipeline. Save overwrites
// the whole record; partial updates go through read-modify-write inside the
// orchestrator, which owns the state machine.
type ContractStore interface {
	Save(ctx context.Context, c *entity.Contract) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Contract, error)
	List(ctx context.Context) ([]*entity.Contract, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
