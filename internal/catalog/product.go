// Package catalog owns the product mapping and its insertion order.
//
// A product is present iff its id is non-zero and it appears in the order
// sequence. Removal swap-removes the id from the order sequence, so list
// order is insertion order only until the first removal.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidID     = errors.New("product id must be non-zero")
	ErrEmptyName     = errors.New("product name must not be empty")
	ErrInvalidPrice  = errors.New("product price must be greater than zero")
	ErrAlreadyExists = errors.New("product already exists")
	ErrNotFound      = errors.New("product not found")
	ErrOutOfStock    = errors.New("product is out of stock")
)

// Product is a catalog entry. Price is in the smallest currency unit.
type Product struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Price uint64 `json:"price"`
	Stock uint64 `json:"stock"`
}

// Rules is the version-gated validation policy applied to add and update.
type Rules struct {
	// RejectExisting makes add fail with ErrAlreadyExists instead of
	// overwriting an existing product.
	RejectExisting bool

	// RequireName makes add and update fail with ErrEmptyName on a blank name.
	RequireName bool
}

var (
	// UpsertRules is the V1 policy: add overwrites, empty names allowed.
	UpsertRules = Rules{}

	// StrictRules is the V2 policy: add rejects existing ids, names required.
	StrictRules = Rules{RejectExisting: true, RequireName: true}
)

// NormalizeName trims surrounding whitespace and NFC-normalizes the name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// validate checks the fields shared by add and update.
func (r Rules) validate(p Product) error {
	if p.ID == 0 {
		return ErrInvalidID
	}
	if r.RequireName && p.Name == "" {
		return ErrEmptyName
	}
	if p.Price == 0 {
		return fmt.Errorf("%w: got 0", ErrInvalidPrice)
	}
	return nil
}
