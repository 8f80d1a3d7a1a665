package shop

import (
	"errors"
	"fmt"

	"github.com/roach88/shelf/internal/access"
	"github.com/roach88/shelf/internal/catalog"
	"github.com/roach88/shelf/internal/ledger"
	"github.com/roach88/shelf/internal/migration"
	"github.com/roach88/shelf/internal/money"
)

// Kind classifies a rejected operation. The string values are stable and
// appear in CLI output, HTTP responses and scenario files.
type Kind string

const (
	KindInvalidID           Kind = "InvalidId"
	KindEmptyName           Kind = "EmptyName"
	KindInvalidPrice        Kind = "InvalidPrice"
	KindAlreadyExists       Kind = "AlreadyExists"
	KindNotFound            Kind = "NotFound"
	KindOutOfStock          Kind = "OutOfStock"
	KindInsufficientPayment Kind = "InsufficientPayment"
	KindAccessDenied        Kind = "AccessDenied"
	KindOffsetOutOfBounds   Kind = "OffsetOutOfBounds"
	KindInvalidRange        Kind = "InvalidRange"
	KindNothingToWithdraw   Kind = "NothingToWithdraw"
	KindAlreadyInitialized  Kind = "AlreadyInitialized"
	KindVersionMismatch     Kind = "VersionMismatch"
	KindArithmeticOverflow  Kind = "ArithmeticOverflow"
	KindTransferFailed      Kind = "TransferFailed"
	KindInvalidPrincipal    Kind = "InvalidPrincipal"

	// KindInternal covers storage failures and corrupted state.
	KindInternal Kind = "Internal"
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindInvalidID, KindEmptyName, KindInvalidPrice, KindAlreadyExists,
	KindNotFound, KindOutOfStock, KindInsufficientPayment, KindAccessDenied,
	KindOffsetOutOfBounds, KindInvalidRange, KindNothingToWithdraw,
	KindAlreadyInitialized, KindVersionMismatch, KindArithmeticOverflow,
	KindTransferFailed, KindInvalidPrincipal, KindInternal,
}

// Error is returned by every Shop operation that fails.
//
// errors.Is(err, shop.ErrNotFound) matches on Kind alone, and Unwrap exposes
// the lower-layer cause (catalog.ErrNotFound, a storage error, ...).
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidID           = &Error{Kind: KindInvalidID}
	ErrEmptyName           = &Error{Kind: KindEmptyName}
	ErrInvalidPrice        = &Error{Kind: KindInvalidPrice}
	ErrAlreadyExists       = &Error{Kind: KindAlreadyExists}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrOutOfStock          = &Error{Kind: KindOutOfStock}
	ErrInsufficientPayment = &Error{Kind: KindInsufficientPayment}
	ErrAccessDenied        = &Error{Kind: KindAccessDenied}
	ErrOffsetOutOfBounds   = &Error{Kind: KindOffsetOutOfBounds}
	ErrInvalidRange        = &Error{Kind: KindInvalidRange}
	ErrNothingToWithdraw   = &Error{Kind: KindNothingToWithdraw}
	ErrAlreadyInitialized  = &Error{Kind: KindAlreadyInitialized}
	ErrVersionMismatch     = &Error{Kind: KindVersionMismatch}
	ErrArithmeticOverflow  = &Error{Kind: KindArithmeticOverflow}
	ErrTransferFailed      = &Error{Kind: KindTransferFailed}
	ErrInvalidPrincipal    = &Error{Kind: KindInvalidPrincipal}
	ErrInternal            = &Error{Kind: KindInternal}
)

// KindOf returns the kind of err, or "" for nil and KindInternal for errors
// that did not come from a Shop operation.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return classify(err)
}

var causes = []struct {
	err  error
	kind Kind
}{
	{catalog.ErrInvalidID, KindInvalidID},
	{catalog.ErrEmptyName, KindEmptyName},
	{catalog.ErrInvalidPrice, KindInvalidPrice},
	{catalog.ErrAlreadyExists, KindAlreadyExists},
	{catalog.ErrNotFound, KindNotFound},
	{catalog.ErrOutOfStock, KindOutOfStock},
	{ledger.ErrOffsetOutOfBounds, KindOffsetOutOfBounds},
	{ledger.ErrInvalidRange, KindInvalidRange},
	{access.ErrAccessDenied, KindAccessDenied},
	{access.ErrInvalidPrincipal, KindInvalidPrincipal},
	{migration.ErrAlreadyInitialized, KindAlreadyInitialized},
	{migration.ErrVersionMismatch, KindVersionMismatch},
	{money.ErrOverflow, KindArithmeticOverflow},
}

func classify(err error) Kind {
	for _, c := range causes {
		if errors.Is(err, c.err) {
			return c.kind
		}
	}
	return KindInternal
}

// wrap attaches op and a kind to err. An *Error already at the top is
// returned unchanged.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*Error); ok {
		if se.Op != "" {
			return se
		}
		return &Error{Kind: se.Kind, Op: op, Err: se.Err}
	}
	return &Error{Kind: KindOf(err), Op: op, Err: err}
}

// reject builds an error of kind k with a formatted cause.
func reject(op string, k Kind, format string, args ...any) error {
	return &Error{Kind: k, Op: op, Err: fmt.Errorf(format, args...)}
}
