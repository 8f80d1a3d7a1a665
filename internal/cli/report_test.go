package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelf/internal/canon"
	"github.com/roach88/shelf/internal/events"
)

func record(seq int64, payload string) events.Record {
	return events.Record{
		Seq:     seq,
		Type:    events.TypeFundsWithdrawn,
		Payload: json.RawMessage(payload),
		Digest:  canon.HashWithDomain(canon.DomainEvent, []byte(payload)),
	}
}

func TestVerifyDigests(t *testing.T) {
	good := record(1, `{"admin":"alice","amount":100,"seq":1}`)
	require.NoError(t, verifyDigests([]events.Record{good}))

	unordered := record(2, `{"seq":2,"admin":"alice","amount":100}`)
	err := verifyDigests([]events.Record{good, unordered})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 2")
	assert.Contains(t, err.Error(), "not canonical")

	tampered := record(3, `{"admin":"alice","amount":100,"seq":3}`)
	tampered.Payload = json.RawMessage(`{"admin":"mallory","amount":100,"seq":3}`)
	err = verifyDigests([]events.Record{tampered})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest mismatch")
}
