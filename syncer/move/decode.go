package move

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChainSafe/starcoin-bridge/chains/movechain"
	"github.com/ChainSafe/starcoin-bridge/events"
)

// depositModuleName is the on-chain event struct name for a token
// deposit, compared case-insensitively against the trailing segment of
// an EventRecord's struct tag, per spec.md §4.1 ("on-chain modules are
// PascalCase; client identifiers are lowercase; matching is case
// insensitive").
const depositModuleName = "TokenDepositedEvent"

// governanceModuleNames are the struct tag trailing segments this
// syncer recognizes as governance events, matching
// events.GovernanceEventKind's values directly.
var governanceModuleNames = []events.GovernanceEventKind{
	events.GovEventEmergencyOp,
	events.GovEventBlocklistValidator,
	events.GovEventUpdateRouteLimit,
	events.GovEventTokenRegistration,
	events.GovEventNewToken,
	events.GovEventUpdateTokenPrice,
}

// trackedModules is the module filter passed to SimpleClient.GetEvents
// so the Move RPC only returns events this syncer understands.
func trackedModules() []string {
	out := []string{depositModuleName}
	for _, k := range governanceModuleNames {
		out = append(out, string(k))
	}
	return out
}

func moduleName(structTag string) string {
	if idx := strings.LastIndex(structTag, "::"); idx != -1 {
		return structTag[idx+2:]
	}
	return structTag
}

// IsTracked reports whether structTag names a module this package
// knows how to decode, used by the signing server to find the
// bridge-event-relative position within a transaction's raw event
// list (spec.md §4.3, DESIGN.md Open Question decision #3).
func IsTracked(structTag string) bool {
	name := moduleName(structTag)
	if strings.EqualFold(name, depositModuleName) {
		return true
	}
	for _, kind := range governanceModuleNames {
		if strings.EqualFold(name, string(kind)) {
			return true
		}
	}
	return false
}

// Decode classifies one EventRecord by its struct tag and decodes it
// into a sanitized DecodedEvent, mirroring
// events.DecodeEVMDeposit/DecodeGovernanceEvent's validate-then-build
// shape for the Move side. A (nil, nil) return means the record's
// module is untracked and should be skipped without advancing any
// pipeline state but the cursor.
func Decode(rec movechain.EventRecord) (*events.DecodedEvent, error) {
	name := moduleName(rec.StructTag)

	if strings.EqualFold(name, depositModuleName) {
		var dep events.MoveTokenDeposited
		if err := json.Unmarshal(rec.Data, &dep); err != nil {
			return nil, fmt.Errorf("unmarshaling move deposit event at block %d: %w", rec.BlockNumber, err)
		}
		dep.BlockNumber = rec.BlockNumber
		dep.EventSeq = rec.EventSeq
		dep.TxDigest = rec.TxDigest
		return events.DecodeMoveDeposit(&dep)
	}

	for _, kind := range governanceModuleNames {
		if !strings.EqualFold(name, string(kind)) {
			continue
		}
		var raw events.RawGovernanceEvent
		if err := json.Unmarshal(rec.Data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshaling move governance event at block %d: %w", rec.BlockNumber, err)
		}
		raw.Kind = kind
		raw.BlockNumber = rec.BlockNumber
		return events.DecodeGovernanceEvent(&raw)
	}

	return nil, nil
}
