package cache

import (
	"context"

	"suitecompare/domain/metrics"
	"suitecompare/ports"
)

// Store adapts the package functions to ports.DatasetCache
type Store struct{}

// NewStore creates a Store
func NewStore() *Store { return &Store{} }

func (Store) Exists(path string) bool { return Exists(path) }

func (Store) Load(ctx context.Context, path string) (*metrics.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(path)
}

func (Store) Save(ctx context.Context, path string, ds *metrics.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return Save(path, ds)
}

var _ ports.DatasetCache = Store{}
