package resource

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ecosoul/internal/ledger"
	"github.com/roach88/ecosoul/internal/schema"
)

func createHandle(hash ledger.SubmissionHash) RequestHandle {
	return RequestHandle{SubmissionID: "sub-1", Hash: hash, Kind: KindCreate, Status: StatusPending}
}

func mintedReceipt(hash ledger.SubmissionHash, id int64) ledger.Receipt {
	return ledger.Receipt{
		Hash:   hash,
		Status: ledger.ReceiptSuccess,
		Events: []ledger.Event{{
			Name:   "NFTMinted",
			Fields: ledger.Values{"owner": "0xabc", "tokenId": big.NewInt(id)},
		}},
	}
}

func TestWaiter_CreateAdoptsEventIdentifier(t *testing.T) {
	client := &stubClient{waitFn: func(_ context.Context, hash ledger.SubmissionHash) (ledger.Receipt, error) {
		return mintedReceipt(hash, 7), nil
	}}

	res, err := NewWaiter(client, schema.Default()).Await(context.Background(), createHandle("0x01"))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
	require.NotNil(t, res.Identifier)
	assert.Equal(t, ledger.Identifier(7), *res.Identifier)
	assert.Nil(t, res.Err)
}

func TestWaiter_AwaitTwiceIsIdempotent(t *testing.T) {
	client := &stubClient{waitFn: func(_ context.Context, hash ledger.SubmissionHash) (ledger.Receipt, error) {
		return mintedReceipt(hash, 7), nil
	}}
	w := NewWaiter(client, schema.Default())
	h := createHandle("0x01")

	first, err := w.Await(context.Background(), h)
	require.NoError(t, err)
	second, err := w.Await(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.waits)
}

func TestWaiter_FailedResultIsCachedToo(t *testing.T) {
	client := &stubClient{waitFn: func(_ context.Context, hash ledger.SubmissionHash) (ledger.Receipt, error) {
		return ledger.Receipt{Hash: hash, Status: ledger.ReceiptReverted, Reason: "execution reverted"}, nil
	}}
	w := NewWaiter(client, schema.Default())
	h := createHandle("0x09")

	first, err := w.Await(context.Background(), h)
	require.NoError(t, err)
	second, err := w.Await(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, first.Status)
	var ce *ConfirmationError
	require.ErrorAs(t, first.Err, &ce)
	assert.Equal(t, "execution reverted", ce.Reason)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.waits)
}

func TestWaiter_CreateWithoutEventFails(t *testing.T) {
	client := &stubClient{waitFn: func(_ context.Context, hash ledger.SubmissionHash) (ledger.Receipt, error) {
		return ledger.Receipt{Hash: hash, Status: ledger.ReceiptSuccess}, nil
	}}

	res, err := NewWaiter(client, schema.Default()).Await(context.Background(), createHandle("0x02"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Identifier)
	assert.ErrorContains(t, res.Err, "no NFTMinted event")
}

func TestWaiter_UpdateNeedsNoEvent(t *testing.T) {
	client := &stubClient{waitFn: func(_ context.Context, hash ledger.SubmissionHash) (ledger.Receipt, error) {
		return ledger.Receipt{Hash: hash, Status: ledger.ReceiptSuccess}, nil
	}}
	h := RequestHandle{SubmissionID: "sub-2", Hash: "0x03", Kind: KindUpdate, Status: StatusPending}

	res, err := NewWaiter(client, schema.Default()).Await(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
	assert.Nil(t, res.Identifier)
}

func TestWaiter_ContextCancelLeavesHandleUnresolved(t *testing.T) {
	calls := 0
	client := &stubClient{waitFn: func(ctx context.Context, hash ledger.SubmissionHash) (ledger.Receipt, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return ledger.Receipt{}, ctx.Err()
		}
		return mintedReceipt(hash, 3), nil
	}}
	w := NewWaiter(client, schema.Default())
	h := createHandle("0x04")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := w.Await(ctx, h)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	res, err := w.Await(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Status)
}

func TestWaiter_ReceiptErrorResolvesFailed(t *testing.T) {
	lost := errors.New("receipt not found")
	client := &stubClient{waitFn: func(context.Context, ledger.SubmissionHash) (ledger.Receipt, error) {
		return ledger.Receipt{}, lost
	}}

	res, err := NewWaiter(client, schema.Default()).Await(context.Background(), createHandle("0x05"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.True(t, res.Status.Terminal())
	assert.ErrorIs(t, res.Err, lost)
}

func TestWaiter_WithSimulator(t *testing.T) {
	ctx := context.Background()
	sim := ledger.NewSimulator(ledger.Connected(), ledger.WithNextIdentifier(11))
	sub := NewSubmitter(sim, schema.Default(), ledger.Sepolia, WithIDGenerator(NewSequenceGenerator("sub")))

	h, err := sub.Submit(ctx, KindCreate, Payload{Activity: "walking"})
	require.NoError(t, err)
	res, err := NewWaiter(sim, schema.Default()).Await(ctx, h)
	require.NoError(t, err)
	require.NotNil(t, res.Identifier)
	assert.Equal(t, ledger.Identifier(11), *res.Identifier)
	assert.Equal(t, "sub-1", res.SubmissionID)
	assert.True(t, res.Status.Terminal())
	assert.False(t, h.Status.Terminal())
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusConfirmed.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestWaiter_NonTerminalResultIsNotCached(t *testing.T) {
	w := NewWaiter(&stubClient{}, schema.Default())
	h := createHandle("0x06")

	res := w.store(h.Hash, ConfirmationResult{Hash: h.Hash, Status: StatusPending})
	assert.Equal(t, StatusPending, res.Status)
	_, ok := w.cached(h.Hash)
	assert.False(t, ok)

	res = w.store(h.Hash, ConfirmationResult{Hash: h.Hash, Status: StatusConfirmed})
	assert.Equal(t, StatusConfirmed, res.Status)
	cached, ok := w.cached(h.Hash)
	require.True(t, ok)
	assert.Equal(t, StatusConfirmed, cached.Status)
}
