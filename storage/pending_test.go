package storage

import (
	"testing"

	"github.com/ChainSafe/starcoin-bridge/types"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertIfAbsentIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	pa := NewPendingActions(db)

	fp := types.Fingerprint{Kind: types.ActionKindEmergency, ChainID: types.ChainIDEthMainnet, Nonce: 1}
	inserted, err := pa.InsertIfAbsent(fp, []byte("action-1"))
	require.NoError(t, err)
	require.True(t, inserted)

	insertedAgain, err := pa.InsertIfAbsent(fp, []byte("action-1-duplicate"))
	require.NoError(t, err)
	require.False(t, insertedAgain, "P3: two pending rows with the same fingerprint never coexist")

	rec, err := pa.Get(fp)
	require.NoError(t, err)
	require.Equal(t, []byte("action-1"), rec.ActionBytes)
}

func TestCompareAndSetStatusRejectsStaleTransition(t *testing.T) {
	db := openTestDB(t)
	pa := NewPendingActions(db)
	fp := types.Fingerprint{Kind: types.ActionKindEmergency, ChainID: types.ChainIDEthMainnet, Nonce: 1}
	_, err := pa.InsertIfAbsent(fp, []byte("a"))
	require.NoError(t, err)

	require.NoError(t, pa.CompareAndSetStatus(fp, StatusPending, StatusCertified, nil))
	err = pa.CompareAndSetStatus(fp, StatusPending, StatusInFlight, nil)
	require.Error(t, err, "cas must fail once the row has already moved on")
}

func TestRetryToPendingIncrementsAttempts(t *testing.T) {
	db := openTestDB(t)
	pa := NewPendingActions(db)
	fp := types.Fingerprint{Kind: types.ActionKindEmergency, ChainID: types.ChainIDEthMainnet, Nonce: 1}
	_, err := pa.InsertIfAbsent(fp, []byte("a"))
	require.NoError(t, err)

	require.NoError(t, pa.RetryToPending(fp, nil))
	rec, err := pa.Get(fp)
	require.NoError(t, err)
	require.Equal(t, 1, rec.Attempts)
	require.Equal(t, StatusPending, rec.Status)
}

func TestRetryToPendingRejectsTerminalStatus(t *testing.T) {
	db := openTestDB(t)
	pa := NewPendingActions(db)
	fp := types.Fingerprint{Kind: types.ActionKindEmergency, ChainID: types.ChainIDEthMainnet, Nonce: 1}
	_, err := pa.InsertIfAbsent(fp, []byte("a"))
	require.NoError(t, err)
	require.NoError(t, pa.CompareAndSetStatus(fp, StatusPending, StatusDone, nil))

	err = pa.RetryToPending(fp, nil)
	require.Error(t, err)
}

func TestListByStatusFiltersCorrectly(t *testing.T) {
	db := openTestDB(t)
	pa := NewPendingActions(db)
	fp1 := types.Fingerprint{Kind: types.ActionKindEmergency, ChainID: types.ChainIDEthMainnet, Nonce: 1}
	fp2 := types.Fingerprint{Kind: types.ActionKindEmergency, ChainID: types.ChainIDEthMainnet, Nonce: 2}
	_, err := pa.InsertIfAbsent(fp1, []byte("a"))
	require.NoError(t, err)
	_, err = pa.InsertIfAbsent(fp2, []byte("b"))
	require.NoError(t, err)
	require.NoError(t, pa.CompareAndSetStatus(fp1, StatusPending, StatusCertified, nil))

	certified, err := pa.ListByStatus(StatusCertified)
	require.NoError(t, err)
	require.Len(t, certified, 1)
	require.Equal(t, fp1, certified[0].Fingerprint)
}

func TestCursorsPersistAndRead(t *testing.T) {
	db := openTestDB(t)
	cursors := NewCursors(db)

	require.NoError(t, cursors.PutEVM(EVMCursor{ContractAddress: "0xabc", LastProcessedBlock: 100}))
	cur, err := cursors.GetEVM("0xabc")
	require.NoError(t, err)
	require.Equal(t, uint64(100), cur.LastProcessedBlock)

	require.NoError(t, cursors.PutMove(MoveCursor{ModuleName: "bridge", BlockNumber: 50}))
	mcur, err := cursors.GetMove("bridge")
	require.NoError(t, err)
	require.Equal(t, uint64(50), mcur.BlockNumber)
}
