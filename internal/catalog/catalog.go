package catalog

import "fmt"

// Catalog maps ids to products and keeps the live ids in order.
//
// INVARIANTS:
//   - every id in order has an entry in products with a matching ID field
//   - every entry in products appears in order exactly once
//   - index[id] is the position of id in order
//
// Catalog is not safe for concurrent use; the owner serializes access.
type Catalog struct {
	products map[uint64]Product
	order    []uint64
	index    map[uint64]int
}

// RemoveEffect describes how a removal reshapes the order sequence.
type RemoveEffect struct {
	ID       uint64
	Position int
	// Moved is the id that was swapped into Position, or 0 when the removed
	// id was already last.
	Moved uint64
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{
		products: make(map[uint64]Product),
		index:    make(map[uint64]int),
	}
}

// Restore rebuilds a catalog from products listed in order.
func Restore(products []Product) (*Catalog, error) {
	c := New()
	for i, p := range products {
		if p.ID == 0 {
			return nil, fmt.Errorf("restore position %d: %w", i, ErrInvalidID)
		}
		if _, dup := c.products[p.ID]; dup {
			return nil, fmt.Errorf("restore position %d: id %d: %w", i, p.ID, ErrAlreadyExists)
		}
		c.insert(p)
	}
	return c, nil
}

// CheckAdd validates an add under rules without mutating the catalog.
// It reports whether the id is new.
func (c *Catalog) CheckAdd(p Product, rules Rules) (bool, error) {
	if err := rules.validate(p); err != nil {
		return false, err
	}
	_, exists := c.products[p.ID]
	if exists && rules.RejectExisting {
		return false, fmt.Errorf("id %d: %w", p.ID, ErrAlreadyExists)
	}
	return !exists, nil
}

// Add inserts p, or overwrites it when rules permit. The id is appended to
// the order sequence only when new.
func (c *Catalog) Add(p Product, rules Rules) (bool, error) {
	isNew, err := c.CheckAdd(p, rules)
	if err != nil {
		return false, err
	}
	if isNew {
		c.insert(p)
	} else {
		c.products[p.ID] = p
	}
	return isNew, nil
}

// CheckUpdate validates an update under rules without mutating the catalog.
func (c *Catalog) CheckUpdate(p Product, rules Rules) error {
	if _, ok := c.products[p.ID]; !ok || p.ID == 0 {
		return fmt.Errorf("id %d: %w", p.ID, ErrNotFound)
	}
	return rules.validate(p)
}

// Update overwrites name, price and stock in place. Order is unchanged.
func (c *Catalog) Update(p Product, rules Rules) error {
	if err := c.CheckUpdate(p, rules); err != nil {
		return err
	}
	c.products[p.ID] = p
	return nil
}

// CheckRemove reports the effect removing id would have.
func (c *Catalog) CheckRemove(id uint64) (RemoveEffect, error) {
	pos, ok := c.index[id]
	if !ok {
		return RemoveEffect{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	eff := RemoveEffect{ID: id, Position: pos}
	if last := c.order[len(c.order)-1]; last != id {
		eff.Moved = last
	}
	return eff, nil
}

// Remove swap-removes id: the last id moves into the vacated slot.
func (c *Catalog) Remove(id uint64) (RemoveEffect, error) {
	eff, err := c.CheckRemove(id)
	if err != nil {
		return RemoveEffect{}, err
	}
	lastPos := len(c.order) - 1
	if eff.Moved != 0 {
		c.order[eff.Position] = eff.Moved
		c.index[eff.Moved] = eff.Position
	}
	c.order = c.order[:lastPos]
	delete(c.index, id)
	delete(c.products, id)
	return eff, nil
}

// SetStock replaces the stock of an existing product.
func (c *Catalog) SetStock(id, stock uint64) error {
	p, ok := c.products[id]
	if !ok {
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	p.Stock = stock
	c.products[id] = p
	return nil
}

// Get returns a copy of the product with the given id.
func (c *Catalog) Get(id uint64) (Product, error) {
	p, ok := c.products[id]
	if !ok {
		return Product{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// Position returns the index of id in the order sequence.
func (c *Catalog) Position(id uint64) (int, bool) {
	pos, ok := c.index[id]
	return pos, ok
}

// List returns a snapshot of the products in order-sequence order.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.order))
	for i, id := range c.order {
		out[i] = c.products[id]
	}
	return out
}

// Count returns the number of live products.
func (c *Catalog) Count() int {
	return len(c.order)
}

func (c *Catalog) insert(p Product) {
	c.products[p.ID] = p
	c.index[p.ID] = len(c.order)
	c.order = append(c.order, p.ID)
}
