package nonce

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/arcmarket/arcx/internal/domain"
)

var alice = common.HexToAddress("0xa11ce")

func TestCancelAllOrdersForSender(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)

	require.NoError(t, r.CancelAllOrdersForSender(ctx, alice, 4000))
	require.Equal(t, uint64(4000), r.MinOrderNonce(alice))

	// Raising further is fine.
	require.NoError(t, r.CancelAllOrdersForSender(ctx, alice, 4500))

	// Not moving forward is rejected.
	require.ErrorIs(t, r.CancelAllOrdersForSender(ctx, alice, 4500), domain.ErrNonceTooLow)
	require.ErrorIs(t, r.CancelAllOrdersForSender(ctx, alice, 4000), domain.ErrNonceTooLow)

	// Jumping past the batch ceiling is rejected.
	require.ErrorIs(t, r.CancelAllOrdersForSender(ctx, alice, 4500+MaxCancelBatch+1), domain.ErrNonceCeilingExceeded)

	// Exactly the ceiling is allowed.
	require.NoError(t, r.CancelAllOrdersForSender(ctx, alice, 4500+MaxCancelBatch))
}

func TestCancelAllInvalidatesNoncesBelowFloor(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)

	require.True(t, r.IsNonceValid(alice, 10))
	require.NoError(t, r.CancelAllOrdersForSender(ctx, alice, 100))

	require.False(t, r.IsNonceValid(alice, 10))
	require.False(t, r.IsNonceValid(alice, 99))
	require.True(t, r.IsNonceValid(alice, 100))
	require.True(t, r.IsNonceValid(alice, 101))
}

func TestCancelMultipleMakerOrders(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)

	require.ErrorIs(t, r.CancelMultipleMakerOrders(ctx, alice, nil), domain.ErrEmptyInput)

	require.NoError(t, r.CancelMultipleMakerOrders(ctx, alice, []uint64{5, 7, 9}))
	require.False(t, r.IsNonceValid(alice, 5))
	require.False(t, r.IsNonceValid(alice, 7))
	require.True(t, r.IsNonceValid(alice, 6))
	require.True(t, r.IsExecutedOrCancelled(alice, 9))
	require.False(t, r.IsExecutedOrCancelled(alice, 6))
}

func TestCancelMultipleIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)

	require.NoError(t, r.CancelAllOrdersForSender(ctx, alice, 100))

	// One nonce below the floor rejects the whole batch.
	err := r.CancelMultipleMakerOrders(ctx, alice, []uint64{150, 50, 200})
	require.ErrorIs(t, err, domain.ErrNonceTooLow)
	require.True(t, r.IsNonceValid(alice, 150))
	require.True(t, r.IsNonceValid(alice, 200))
}

func TestConsume(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)

	require.NoError(t, r.Consume(ctx, alice, 3))
	require.False(t, r.IsNonceValid(alice, 3))
	require.ErrorIs(t, r.Consume(ctx, alice, 3), domain.ErrNonceAlreadyUsed)
}

func TestNonceStateIsPerSigner(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(nil)
	bob := common.HexToAddress("0xb0b")

	require.NoError(t, r.CancelAllOrdersForSender(ctx, alice, 100))
	require.NoError(t, r.Consume(ctx, bob, 7))

	require.True(t, r.IsNonceValid(bob, 50))
	require.True(t, r.IsNonceValid(alice, 100))
	require.False(t, r.IsNonceValid(alice, 7))
	require.False(t, r.IsNonceValid(bob, 7))
	require.Equal(t, uint64(0), r.MinOrderNonce(bob))
}

// failStore rejects every write, to verify memory state stays untouched on
// persistence failure.
type failStore struct{}

var errStore = errors.New("store down")

func (failStore) SetMinNonce(context.Context, common.Address, uint64) error { return errStore }
func (failStore) AddUsedNonces(context.Context, common.Address, []uint64) error {
	return errStore
}
func (failStore) LoadAll(context.Context) ([]domain.NonceSnapshot, error) { return nil, nil }

func TestStoreFailureLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(failStore{})

	require.ErrorIs(t, r.CancelAllOrdersForSender(ctx, alice, 100), errStore)
	require.Equal(t, uint64(0), r.MinOrderNonce(alice))

	require.ErrorIs(t, r.CancelMultipleMakerOrders(ctx, alice, []uint64{1}), errStore)
	require.True(t, r.IsNonceValid(alice, 1))

	require.ErrorIs(t, r.Consume(ctx, alice, 2), errStore)
	require.True(t, r.IsNonceValid(alice, 2))
}
