package replay

import (
	"context"

	"ammScope/internal/storage/postgres"
)

// DBStateStore keeps the replay position in the replay_state table.
type DBStateStore struct {
	store *postgres.Store
	name  string
}

func NewDBStateStore(store *postgres.Store, name string) *DBStateStore {
	return &DBStateStore{store: store, name: name}
}

func (s *DBStateStore) Load(ctx context.Context) (uint64, bool, error) {
	return s.store.LoadState(ctx, s.name)
}

func (s *DBStateStore) Save(ctx context.Context, seq uint64) error {
	return s.store.SaveState(ctx, s.name, seq)
}
