package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/shelf/internal/access"
)

// ErrRecipientRejected is returned by RecordingTransferer for recipients
// marked with Reject.
var ErrRecipientRejected = errors.New("recipient cannot receive funds")

// Transfer is one payout seen by a RecordingTransferer.
type Transfer struct {
	To     access.Principal
	Amount uint64
	Reason string
}

// RecordingTransferer records successful payouts and fails for rejected
// recipients.
type RecordingTransferer struct {
	mu        sync.Mutex
	rejected  map[access.Principal]bool
	transfers []Transfer
}

func NewRecordingTransferer() *RecordingTransferer {
	return &RecordingTransferer{rejected: make(map[access.Principal]bool)}
}

// Reject makes every transfer to p fail.
func (r *RecordingTransferer) Reject(p access.Principal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[p] = true
}

// Transfer records the payout or fails with ErrRecipientRejected.
func (r *RecordingTransferer) Transfer(_ context.Context, to access.Principal, amount uint64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejected[to] {
		return ErrRecipientRejected
	}
	r.transfers = append(r.transfers, Transfer{To: to, Amount: amount, Reason: reason})
	return nil
}

// Transfers returns a copy of the recorded payouts.
func (r *RecordingTransferer) Transfers() []Transfer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Transfer, len(r.transfers))
	copy(out, r.transfers)
	return out
}
