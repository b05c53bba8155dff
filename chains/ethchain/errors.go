package ethchain

import "github.com/ChainSafe/starcoin-bridge/types"

// errTransportTransient aliases the shared transport-transient
// sentinel (spec.md §7) so RPC failures in this package are
// recognizable with errors.Is by callers across chain boundaries.
var errTransportTransient = types.ErrTransportTransient
