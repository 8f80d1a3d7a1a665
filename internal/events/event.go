package events

import (
	"encoding/json"
	"time"

	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/ledger"
)

// Event type names, as stored in the event log.
const (
	TypeProductAdded     = "ProductAdded"
	TypeProductUpdated   = "ProductUpdated"
	TypeProductRemoved   = "ProductRemoved"
	TypeSaleRecorded     = "SaleRecorded"
	TypeProductPurchased = "ProductPurchased"
	TypeRefundSent       = "RefundSent"
	TypeFundsWithdrawn   = "FundsWithdrawn"
	TypeAdminTransferred = "AdminTransferred"
	TypeSchemaMigrated   = "SchemaMigrated"
)

// Event is a committed notification.
type Event interface {
	Type() string
	Header() *Meta
}

// Meta is the header shared by all events.
type Meta struct {
	Seq  int64     `json:"seq"`
	OpID string    `json:"op_id"`
	At   time.Time `json:"at"`
}

// Header returns m itself so embedding types satisfy Event.
func (m *Meta) Header() *Meta { return m }

// ProductAdded is emitted by add. Replaced is true when a V1 upsert
// overwrote an existing product.
type ProductAdded struct {
	Meta
	Product  catalog.Product `json:"product"`
	Replaced bool            `json:"replaced"`
}

func (*ProductAdded) Type() string { return TypeProductAdded }

type ProductUpdated struct {
	Meta
	Product catalog.Product `json:"product"`
}

func (*ProductUpdated) Type() string { return TypeProductUpdated }

// ProductRemoved records the swap-remove: Moved (if non-zero) now occupies
// Position.
type ProductRemoved struct {
	Meta
	ProductID uint64 `json:"product_id"`
	Position  int    `json:"position"`
	Moved     uint64 `json:"moved,omitempty"`
}

func (*ProductRemoved) Type() string { return TypeProductRemoved }

type SaleRecorded struct {
	Meta
	Sale ledger.SaleRecord `json:"sale"`
}

func (*SaleRecorded) Type() string { return TypeSaleRecorded }

type ProductPurchased struct {
	Meta
	ProductID uint64 `json:"product_id"`
	Buyer     string `json:"buyer"`
	Price     uint64 `json:"price"`
	Paid      uint64 `json:"paid"`
	StockLeft uint64 `json:"stock_left"`
}

func (*ProductPurchased) Type() string { return TypeProductPurchased }

type RefundSent struct {
	Meta
	Buyer  string `json:"buyer"`
	Amount uint64 `json:"amount"`
}

func (*RefundSent) Type() string { return TypeRefundSent }

type FundsWithdrawn struct {
	Meta
	Admin  string `json:"admin"`
	Amount uint64 `json:"amount"`
}

func (*FundsWithdrawn) Type() string { return TypeFundsWithdrawn }

type AdminTransferred struct {
	Meta
	From string `json:"from"`
	To   string `json:"to"`
}

func (*AdminTransferred) Type() string { return TypeAdminTransferred }

// SchemaMigrated is emitted by each migration step. Baseline is the
// collected-funds baseline captured by the V2 step.
type SchemaMigrated struct {
	Meta
	Version  int    `json:"version"`
	Admin    string `json:"admin,omitempty"`
	Baseline uint64 `json:"baseline"`
}

func (*SchemaMigrated) Type() string { return TypeSchemaMigrated }

// Record is an event as read back from the durable log. Digest is the
// domain-separated hash of Payload.
type Record struct {
	Seq     int64           `json:"seq"`
	OpID    string          `json:"op_id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Digest  string          `json:"digest"`
	At      time.Time       `json:"at"`
}
