package manifest

import (
	"context"
	"errors"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/shop"
)

// Catalog is the part of the shop a manifest is applied to.
type Catalog interface {
	Get(id uint64) (catalog.Product, error)
	Add(ctx context.Context, caller access.Principal, p catalog.Product) (catalog.Product, error)
	Update(ctx context.Context, caller access.Principal, p catalog.Product) (catalog.Product, error)
}

// Result counts what Apply did.
type Result struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
}

// Apply adds each product, or updates it when the id is already present.
// It stops at the first rejected product; earlier products stay applied.
func Apply(ctx context.Context, c Catalog, caller access.Principal, m *Manifest) (Result, error) {
	var res Result
	for _, p := range m.Products {
		_, err := c.Get(p.ID)
		switch {
		case err == nil:
			if _, err := c.Update(ctx, caller, p); err != nil {
				return res, err
			}
			res.Updated++
		case errors.Is(err, shop.ErrNotFound):
			if _, err := c.Add(ctx, caller, p); err != nil {
				return res, err
			}
			res.Added++
		default:
			return res, err
		}
	}
	return res, nil
}
