package eth

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ChainSafe/starcoin-bridge/events"
	"github.com/ChainSafe/starcoin-bridge/internal/testutil"
	"github.com/ChainSafe/starcoin-bridge/storage"
)

type recordingSink struct {
	accepted []*events.DecodedEvent
}

func (r *recordingSink) Accept(ctx context.Context, ev *events.DecodedEvent) error {
	r.accepted = append(r.accepted, ev)
	return nil
}

func TestSyncerAdvancesCursorWithNoEvents(t *testing.T) {
	fake := testutil.NewFakeEthChain()
	fake.FinalizedBlock = 50

	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cursors := storage.NewCursors(db)

	sink := &recordingSink{}
	contract := common.HexToAddress("0x00000000000000000000000000000000000bad")
	s := New(fake, cursors, contract, sink)

	advanced, err := s.processNextWindow(context.Background())
	require.NoError(t, err)
	require.True(t, advanced)
	require.Empty(t, sink.accepted)

	cur, err := cursors.GetEVM(contract.Hex())
	require.NoError(t, err)
	require.Equal(t, uint64(50), cur.LastProcessedBlock)
}

func TestSyncerCapsWindowAtWindowSize(t *testing.T) {
	fake := testutil.NewFakeEthChain()
	fake.FinalizedBlock = WindowSize * 3

	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cursors := storage.NewCursors(db)

	sink := &recordingSink{}
	contract := common.HexToAddress("0x00000000000000000000000000000000000bad")
	s := New(fake, cursors, contract, sink)

	advanced, err := s.processNextWindow(context.Background())
	require.NoError(t, err)
	require.True(t, advanced)

	cur, err := cursors.GetEVM(contract.Hex())
	require.NoError(t, err)
	require.Equal(t, uint64(WindowSize), cur.LastProcessedBlock, "one iteration must not exceed the window cap even when far behind the tip")
}

func TestSyncerWaitsWhenCaughtUp(t *testing.T) {
	fake := testutil.NewFakeEthChain()
	fake.FinalizedBlock = 10

	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cursors := storage.NewCursors(db)
	require.NoError(t, cursors.PutEVM(storage.EVMCursor{ContractAddress: "0x00000000000000000000000000000000000bad", LastProcessedBlock: 10}))

	sink := &recordingSink{}
	contract := common.HexToAddress("0x00000000000000000000000000000000000bad")
	s := New(fake, cursors, contract, sink)

	advanced, err := s.processNextWindow(context.Background())
	require.NoError(t, err)
	require.False(t, advanced)
}
