package storage

import (
	"encoding/json"
	"fmt"
)

// EVMCursor is the restart position for one EVM contract target, per
// spec.md §3/§6.4.
type EVMCursor struct {
	ContractAddress     string
	LastProcessedBlock  uint64
}

// MoveCursor is the restart position for one Move module target, per
// spec.md §3/§6.4. EventSeq is carried for forward-compatibility but
// the resolved Open Question (DESIGN.md) means it is always 0 in
// practice: the cursor is block-scoped, not event-scoped.
type MoveCursor struct {
	ModuleName  string
	BlockNumber uint64
	EventSeq    uint64
}

// Cursors is the cursors table: key = (source, target_id), per
// spec.md §6.4. The owning syncer is the only writer to a given row
// (spec.md §5).
type Cursors struct {
	db *DB
}

func NewCursors(db *DB) *Cursors { return &Cursors{db: db} }

func evmCursorKey(contractAddress string) []byte {
	return []byte("cursor:evm:" + contractAddress)
}

func moveCursorKey(moduleName string) []byte {
	return []byte("cursor:move:" + moduleName)
}

// GetEVM returns the persisted cursor for an EVM contract, or
// ErrNotFound if the syncer has never advanced past genesis for it.
func (c *Cursors) GetEVM(contractAddress string) (EVMCursor, error) {
	var cur EVMCursor
	raw, err := c.db.get(evmCursorKey(contractAddress))
	if err != nil {
		return cur, err
	}
	if err := json.Unmarshal(raw, &cur); err != nil {
		return cur, fmt.Errorf("decoding evm cursor for %s: %w", contractAddress, err)
	}
	return cur, nil
}

// PutEVM persists an EVM cursor. Called after the corresponding batch
// has been durably enqueued for the executor (spec.md §4.1, §4.6).
func (c *Cursors) PutEVM(cur EVMCursor) error {
	raw, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("encoding evm cursor: %w", err)
	}
	return c.db.put(evmCursorKey(cur.ContractAddress), raw)
}

// GetMove returns the persisted cursor for a Move module.
func (c *Cursors) GetMove(moduleName string) (MoveCursor, error) {
	var cur MoveCursor
	raw, err := c.db.get(moveCursorKey(moduleName))
	if err != nil {
		return cur, err
	}
	if err := json.Unmarshal(raw, &cur); err != nil {
		return cur, fmt.Errorf("decoding move cursor for %s: %w", moduleName, err)
	}
	return cur, nil
}

// PutMove persists a Move cursor.
func (c *Cursors) PutMove(cur MoveCursor) error {
	raw, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("encoding move cursor: %w", err)
	}
	return c.db.put(moveCursorKey(cur.ModuleName), raw)
}
