// internal/state/interface.go
package state

import (
	"context"
	"database/sql"

	"github.com/llehouerou/shadow/internal/progress"
)

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	progress.Store
	DB() *sql.DB
	GetProgress(ctx context.Context, collectionID string) (*CollectionProgress, error)
	Completions(ctx context.Context, collectionID string) ([]Completion, error)
	GetVolume(ctx context.Context) (*VolumeState, error)
	SaveVolume(ctx context.Context, volume float64, muted bool) error
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
