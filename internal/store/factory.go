package store

import "github.com/br00kd0wnt0n/LENNYBOT/core/db"

// Stores provides access to all stores over one querier, either the pool
// or a transaction.
type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Messages() MessageStore {
	return newMessageStore(s.q)
}

func (s *Stores) Rollups() RollupStore {
	return newRollupStore(s.q)
}
