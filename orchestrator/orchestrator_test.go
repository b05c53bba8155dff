package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ChainSafe/starcoin-bridge/aggregator"
	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/events"
	"github.com/ChainSafe/starcoin-bridge/executor"
	"github.com/ChainSafe/starcoin-bridge/internal/testutil"
	"github.com/ChainSafe/starcoin-bridge/storage"
	"github.com/ChainSafe/starcoin-bridge/types"
)

type singleAuthorityClient struct {
	kp *bridgecrypto.AuthorityKeyPair
}

func (c singleAuthorityClient) RequestSign(ctx context.Context, action *types.BridgeAction) (*types.SignedAction, error) {
	return types.Sign(action, c.kp)
}

func newFixture(t *testing.T) (*Orchestrator, *storage.PendingActions) {
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
	agg := aggregator.New(committee, factory)

	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	pending := storage.NewPendingActions(db)

	eth := testutil.NewFakeEthChain()
	move := testutil.NewFakeMoveChain()
	ex := executor.New(pending, agg, eth, move)

	return New(pending, ex), pending
}

func TestAcceptInsertsPendingRowOnce(t *testing.T) {
	orc, pending := newFixture(t)
	action := types.NewEmergencyAction(types.ChainIDMoveMainnet, 1, types.EmergencyOpPause)
	ev := &events.DecodedEvent{Action: action, SourceTag: "move"}

	require.NoError(t, orc.Accept(context.Background(), ev))
	require.NoError(t, orc.Accept(context.Background(), ev)) // duplicate delivery, e.g. a syncer restart replay

	rec, err := pending.Get(action.Fingerprint())
	require.NoError(t, err)
	require.Equal(t, storage.StatusPending, rec.Status)
}

func TestRunDrivesQueuedActionToDone(t *testing.T) {
	orc, pending := newFixture(t)
	action := types.NewEmergencyAction(types.ChainIDMoveMainnet, 1, types.EmergencyOpPause)
	ev := &events.DecodedEvent{Action: action, SourceTag: "move"}
	require.NoError(t, orc.Accept(context.Background(), ev))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		_ = orc.Run(ctx, 2)
		close(runDone)
	}()

	require.Eventually(t, func() bool {
		rec, err := pending.Get(action.Fingerprint())
		return err == nil && rec.Status == storage.StatusDone
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-runDone
}

func TestRunReplaysUnterminatedRowsOnStartup(t *testing.T) {
	orc, pending := newFixture(t)
	action := types.NewEmergencyAction(types.ChainIDMoveMainnet, 1, types.EmergencyOpPause)
	actionBytes, err := types.Encode(action)
	require.NoError(t, err)
	fp := action.Fingerprint()
	_, err = pending.InsertIfAbsent(fp, actionBytes)
	require.NoError(t, err)
	// No Accept call here: this row simulates one left over by a crash
	// between a previous process's insert and its first Process call.

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	runDone := make(chan struct{})
	go func() {
		_ = orc.Run(ctx, 1)
		close(runDone)
	}()

	require.Eventually(t, func() bool {
		rec, err := pending.Get(fp)
		return err == nil && rec.Status == storage.StatusDone
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-runDone
}
