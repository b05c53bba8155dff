package move

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/events"
	"github.com/ChainSafe/starcoin-bridge/internal/testutil"
	"github.com/ChainSafe/starcoin-bridge/storage"
	"github.com/ChainSafe/starcoin-bridge/types"
)

type recordingSink struct {
	accepted []*events.DecodedEvent
}

func (r *recordingSink) Accept(ctx context.Context, ev *events.DecodedEvent) error {
	r.accepted = append(r.accepted, ev)
	return nil
}

func TestSyncerDecodesDepositAndAdvancesCursor(t *testing.T) {
	fake := testutil.NewFakeMoveChain()
	fake.Head = 10

	dep := events.MoveTokenDeposited{
		SeqNum:         1,
		SourceChainID:  types.ChainIDMoveMainnet,
		SenderAddr:     []byte("sender-addr-bytes"),
		TargetChainID:  types.ChainIDEthMainnet,
		TargetAddr:     make([]byte, 20),
		TokenType:      "0x1::usdc::USDC",
		AmountAdjusted: 500,
	}
	data, err := json.Marshal(dep)
	require.NoError(t, err)
	fake.Events = append(fake.Events, movechain.EventRecord{
		StructTag:   "0x1::bridge::TokenDepositedEvent",
		BlockNumber: 3,
		Data:        data,
	})

	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cursors := storage.NewCursors(db)

	sink := &recordingSink{}
	s := New(fake, cursors, "bridge", sink)

	advanced, err := s.processNextWindow(context.Background())
	require.NoError(t, err)
	require.True(t, advanced)
	require.Len(t, sink.accepted, 1)
	require.Equal(t, types.ActionKindTokenTransfer, sink.accepted[0].Action.Kind)

	cur, err := cursors.GetMove("bridge")
	require.NoError(t, err)
	require.Equal(t, uint64(10), cur.BlockNumber)
}

func TestSyncerSkipsUntrackedModules(t *testing.T) {
	fake := testutil.NewFakeMoveChain()
	fake.Head = 5
	fake.Events = append(fake.Events, movechain.EventRecord{
		StructTag:   "0x1::bridge::SomeUnrelatedEvent",
		BlockNumber: 1,
		Data:        []byte(`{}`),
	})

	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cursors := storage.NewCursors(db)

	sink := &recordingSink{}
	s := New(fake, cursors, "bridge", sink)

	advanced, err := s.processNextWindow(context.Background())
	require.NoError(t, err)
	require.True(t, advanced)
	require.Empty(t, sink.accepted)
}

func TestSyncerWaitsWhenCaughtUp(t *testing.T) {
	fake := testutil.NewFakeMoveChain()
	fake.Head = 5

	db, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cursors := storage.NewCursors(db)
	require.NoError(t, cursors.PutMove(storage.MoveCursor{ModuleName: "bridge", BlockNumber: 5}))

	sink := &recordingSink{}
	s := New(fake, cursors, "bridge", sink)

	advanced, err := s.processNextWindow(context.Background())
	require.NoError(t, err)
	require.False(t, advanced)
}
