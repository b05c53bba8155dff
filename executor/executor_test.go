package executor

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ChainSafe/starcoin-bridge/aggregator"
	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/internal/testutil"
	"github.com/ChainSafe/starcoin-bridge/storage"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// singleAuthorityClient signs every request with kp; paired with a
// sole-member committee holding full TotalVotingPower, it's the
// smallest committee shape that exercises the executor without
// re-testing the aggregator's own fan-out logic (already covered by
// aggregator/aggregator_test.go).
type singleAuthorityClient struct {
	kp *bridgecrypto.AuthorityKeyPair
}

func (c singleAuthorityClient) RequestSign(ctx context.Context, action *types.BridgeAction) (*types.SignedAction, error) {
	return types.Sign(action, c.kp)
}

func newSoleCommitteeFixture(t *testing.T) (*types.Committee, *aggregator.Aggregator) {
	t.Helper()
	kp, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)

	committee, err := types.NewCommittee(1, []types.AuthorityInfo{
		{PublicKey: kp.PublicKey(), VotingPower: types.TotalVotingPower},
	})
	require.NoError(t, err)

	factory := aggregator.SignerClientFactoryFunc(func(types.AuthorityInfo) aggregator.SignerClient {
		return singleAuthorityClient{kp: kp}
	})
	return committee, aggregator.New(committee, factory)
}

func openTestPending(t *testing.T) *storage.PendingActions {
	t.Helper()
	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewPendingActions(db)
}

func TestExecutorCertifiesPendingAction(t *testing.T) {
	_, agg := newSoleCommitteeFixture(t)
	pending := openTestPending(t)
	eth := testutil.NewFakeEthChain()
	move := testutil.NewFakeMoveChain()
	ex := New(pending, agg, eth, move)

	action := types.NewEmergencyAction(types.ChainIDEthMainnet, 1, types.EmergencyOpPause)
	actionBytes, err := types.Encode(action)
	require.NoError(t, err)
	fp := action.Fingerprint()
	_, err = pending.InsertIfAbsent(fp, actionBytes)
	require.NoError(t, err)

	require.NoError(t, ex.Process(context.Background(), fp))

	rec, err := pending.Get(fp)
	require.NoError(t, err)
	require.Equal(t, storage.StatusCertified, rec.Status)
	require.NotEmpty(t, rec.CertifiedBytes)
}

func TestExecutorSubmitsToEVMAndReachesDone(t *testing.T) {
	_, agg := newSoleCommitteeFixture(t)
	pending := openTestPending(t)
	eth := testutil.NewFakeEthChain()
	move := testutil.NewFakeMoveChain()
	ex := New(pending, agg, eth, move)

	action := types.NewEmergencyAction(types.ChainIDEthMainnet, 1, types.EmergencyOpPause)
	actionBytes, err := types.Encode(action)
	require.NoError(t, err)
	fp := action.Fingerprint()
	_, err = pending.InsertIfAbsent(fp, actionBytes)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ex.Process(ctx, fp)) // Pending -> Certified

	txHash := common.HexToHash("0x01")
	eth.NextTxHash = func() common.Hash { return txHash }
	eth.Receipts[txHash] = &ethchain.Receipt{BlockNumber: 1}

	require.NoError(t, ex.Process(ctx, fp)) // Certified -> InFlight -> Done

	rec, err := pending.Get(fp)
	require.NoError(t, err)
	require.Equal(t, storage.StatusDone, rec.Status)
	require.Len(t, eth.SubmittedTxs, 1)
	require.Equal(t, uint8(types.ActionKindEmergency), eth.SubmittedTxs[0].ActionType)
}

func TestExecutorSkipsSubmissionWhenAlreadyLanded(t *testing.T) {
	_, agg := newSoleCommitteeFixture(t)
	pending := openTestPending(t)
	eth := testutil.NewFakeEthChain()
	move := testutil.NewFakeMoveChain()
	ex := New(pending, agg, eth, move)

	action := types.NewEmergencyAction(types.ChainIDEthMainnet, 1, types.EmergencyOpPause)
	actionBytes, err := types.Encode(action)
	require.NoError(t, err)
	fp := action.Fingerprint()
	_, err = pending.InsertIfAbsent(fp, actionBytes)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ex.Process(ctx, fp)) // Pending -> Certified

	// A later nonce already recorded on-chain means another authority's
	// submission (or a previous crash-retried attempt of this one)
	// already landed the action.
	eth.Nonces[uint8(types.ActionKindEmergency)] = 2

	require.NoError(t, ex.Process(ctx, fp))

	rec, err := pending.Get(fp)
	require.NoError(t, err)
	require.Equal(t, storage.StatusDone, rec.Status)
	require.Empty(t, eth.SubmittedTxs, "already-landed action must not be resubmitted")
}

func TestExecutorSubmitsToMoveAndReachesDone(t *testing.T) {
	_, agg := newSoleCommitteeFixture(t)
	pending := openTestPending(t)
	eth := testutil.NewFakeEthChain()
	move := testutil.NewFakeMoveChain()
	ex := New(pending, agg, eth, move)

	action := types.NewEmergencyAction(types.ChainIDMoveMainnet, 1, types.EmergencyOpPause)
	actionBytes, err := types.Encode(action)
	require.NoError(t, err)
	fp := action.Fingerprint()
	_, err = pending.InsertIfAbsent(fp, actionBytes)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ex.Process(ctx, fp)) // Pending -> Certified
	require.NoError(t, ex.Process(ctx, fp)) // Certified -> InFlight -> Done

	rec, err := pending.Get(fp)
	require.NoError(t, err)
	require.Equal(t, storage.StatusDone, rec.Status)
	require.Len(t, move.Submissions, 1)
}

func TestExecutorRetriesOnTransientSubmissionFailure(t *testing.T) {
	_, agg := newSoleCommitteeFixture(t)
	pending := openTestPending(t)
	eth := testutil.NewFakeEthChain()
	move := testutil.NewFakeMoveChain()
	ex := New(pending, agg, eth, move)

	action := types.NewEmergencyAction(types.ChainIDEthMainnet, 1, types.EmergencyOpPause)
	actionBytes, err := types.Encode(action)
	require.NoError(t, err)
	fp := action.Fingerprint()
	_, err = pending.InsertIfAbsent(fp, actionBytes)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, ex.Process(ctx, fp)) // Pending -> Certified

	// No receipt registered for the tx hash the fake will mint, so
	// WaitMined fails transiently and the row must fall back to Pending.
	require.NoError(t, ex.Process(ctx, fp))

	rec, err := pending.Get(fp)
	require.NoError(t, err)
	require.Equal(t, storage.StatusPending, rec.Status)
	require.Equal(t, 1, rec.Attempts)
}
