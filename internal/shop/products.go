package shop

import (
	"context"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/events"
	"github.com/roach88/shelf/internal/migration"
)

// requireAdmin checks that the catalog is initialized and caller is admin.
func (st *State) requireAdmin(caller access.Principal) error {
	if err := st.versions.Require(migration.V1); err != nil {
		return err
	}
	return st.gate.RequireAdmin(caller)
}

// Add inserts a product. At V1 an existing id is overwritten and an empty
// name is allowed; from V2 both are rejected.
func (s *Shop) Add(ctx context.Context, caller access.Principal, p catalog.Product) (catalog.Product, error) {
	p.Name = catalog.NormalizeName(p.Name)
	err := s.mutate(ctx, "add", func(t *txn) error {
		st := s.state
		if err := st.requireAdmin(caller); err != nil {
			return err
		}
		rules := st.rules()
		isNew, err := st.catalog.CheckAdd(p, rules)
		if err != nil {
			return err
		}
		pos := st.catalog.Count()
		if !isNew {
			pos, _ = st.catalog.Position(p.ID)
		}
		t.cs.Upserts = []PlacedProduct{{Product: p, Position: pos}}
		t.emit(&events.ProductAdded{Product: p, Replaced: !isNew})
		t.then(func(st *State) {
			_, err := st.catalog.Add(p, rules)
			must(err)
		})
		return nil
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

// Update overwrites name, price and stock of an existing product in place.
func (s *Shop) Update(ctx context.Context, caller access.Principal, p catalog.Product) (catalog.Product, error) {
	p.Name = catalog.NormalizeName(p.Name)
	err := s.mutate(ctx, "update", func(t *txn) error {
		st := s.state
		if err := st.requireAdmin(caller); err != nil {
			return err
		}
		rules := st.rules()
		if err := st.catalog.CheckUpdate(p, rules); err != nil {
			return err
		}
		pos, _ := st.catalog.Position(p.ID)
		t.cs.Upserts = []PlacedProduct{{Product: p, Position: pos}}
		t.emit(&events.ProductUpdated{Product: p})
		t.then(func(st *State) {
			must(st.catalog.Update(p, rules))
		})
		return nil
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return p, nil
}

// Remove swap-removes a product: the last product in the order sequence
// takes the removed product's position.
func (s *Shop) Remove(ctx context.Context, caller access.Principal, id uint64) (catalog.RemoveEffect, error) {
	var eff catalog.RemoveEffect
	err := s.mutate(ctx, "remove", func(t *txn) error {
		st := s.state
		if err := st.requireAdmin(caller); err != nil {
			return err
		}
		var err error
		if eff, err = st.catalog.CheckRemove(id); err != nil {
			return err
		}
		t.cs.Deletes = []uint64{id}
		if eff.Moved != 0 {
			moved, err := st.catalog.Get(eff.Moved)
			if err != nil {
				return err
			}
			t.cs.Upserts = []PlacedProduct{{Product: moved, Position: eff.Position}}
		}
		t.emit(&events.ProductRemoved{ProductID: id, Position: eff.Position, Moved: eff.Moved})
		t.then(func(st *State) {
			_, err := st.catalog.Remove(id)
			must(err)
		})
		return nil
	})
	if err != nil {
		return catalog.RemoveEffect{}, err
	}
	return eff, nil
}

// Get returns a copy of the product.
func (s *Shop) Get(id uint64) (catalog.Product, error) {
	var p catalog.Product
	err := s.read("get", func(st *State) error {
		if err := st.versions.Require(migration.V1); err != nil {
			return err
		}
		var err error
		p, err = st.catalog.Get(id)
		return err
	})
	return p, err
}

// List returns the products in order-sequence order. The order is not
// stable across removals.
func (s *Shop) List() ([]catalog.Product, error) {
	var out []catalog.Product
	err := s.read("list", func(st *State) error {
		if err := st.versions.Require(migration.V1); err != nil {
			return err
		}
		out = st.catalog.List()
		return nil
	})
	return out, err
}

// Count returns the number of live products.
func (s *Shop) Count() (int, error) {
	var n int
	err := s.read("count", func(st *State) error {
		if err := st.versions.Require(migration.V1); err != nil {
			return err
		}
		n = st.catalog.Count()
		return nil
	})
	return n, err
}
