package server

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// Handler serves the three signing endpoints of spec.md §6.1, each
// backed by its own verifier and (for eth/move) result cache, mirroring
// the three independent signer pipelines of
// original_source/bridge/src/server/handler.rs.
type Handler struct {
	keyPair   *bridgecrypto.AuthorityKeyPair
	eth       *SignerWithCache[EthRequestKey]
	move      *SignerWithCache[MoveRequestKey]
	allowList *GovernanceAllowList
}

// NewHandler wires a Handler around its verifiers. ethVerifier/
// moveVerifier may be nil if this authority does not serve that chain.
func NewHandler(keyPair *bridgecrypto.AuthorityKeyPair, ethVerifier ActionVerifier[EthRequestKey], moveVerifier ActionVerifier[MoveRequestKey], allowList *GovernanceAllowList) (*Handler, error) {
	h := &Handler{keyPair: keyPair, allowList: allowList}
	if ethVerifier != nil {
		c, err := NewSignerWithCache[EthRequestKey](ethVerifier)
		if err != nil {
			return nil, err
		}
		h.eth = c
	}
	if moveVerifier != nil {
		c, err := NewSignerWithCache[MoveRequestKey](moveVerifier)
		if err != nil {
			return nil, err
		}
		h.move = c
	}
	return h, nil
}

// signedActionResponse is the wire shape of a successful signing
// response, per spec.md §6.1.
type signedActionResponse struct {
	Authority string `json:"authority"`
	Signature string `json:"signature"`
}

// errorResponse is the wire shape of a rejected signing request.
type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// HandleSignEthTx serves GET /sign/eth_tx/{tx_hash}/{event_idx}.
func (h *Handler) HandleSignEthTx(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	if h.eth == nil {
		writeError(w, traceID, &types.SignerError{Kind: types.KindNoBridgeEventsInTxPosition, Err: errNoEthRoute})
		return
	}

	txHashStr := routeVar(r, "tx_hash")
	eventIdxStr := routeVar(r, "event_idx")
	if len(txHashStr) != 66 {
		writeError(w, traceID, &types.SignerError{Kind: types.KindInvalidTxHash, Err: errBadTxHash})
		return
	}
	eventIdx, err := strconv.Atoi(eventIdxStr)
	if err != nil || eventIdx < 0 {
		writeError(w, traceID, &types.SignerError{Kind: types.KindInvalidTxHash, Err: errBadEventIdx})
		return
	}

	action, serr := h.eth.Resolve(EthRequestKey{TxHash: common.HexToHash(txHashStr), EventIdx: eventIdx})
	h.respondSigned(w, traceID, action, serr)
}

// HandleSignMoveTx serves GET /sign/move_tx/{tx_digest}/{event_idx}.
func (h *Handler) HandleSignMoveTx(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	if h.move == nil {
		writeError(w, traceID, &types.SignerError{Kind: types.KindNoBridgeEventsInTxPosition, Err: errNoMoveRoute})
		return
	}

	txDigest := routeVar(r, "tx_digest")
	eventIdxStr := routeVar(r, "event_idx")
	eventIdx, err := strconv.Atoi(eventIdxStr)
	if err != nil || eventIdx < 0 {
		writeError(w, traceID, &types.SignerError{Kind: types.KindInvalidTxHash, Err: errBadEventIdx})
		return
	}

	action, serr := h.move.Resolve(MoveRequestKey{TxDigest: txDigest, EventIdx: eventIdx})
	h.respondSigned(w, traceID, action, serr)
}

// HandleSignGovernance serves POST /sign/governance with a JSON-encoded
// candidate action in the request body, approved by exact equality
// against the operator allow-list (spec.md §4.3.1).
func (h *Handler) HandleSignGovernance(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	var candidate governanceActionJSON
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		writeError(w, traceID, &types.SignerError{Kind: types.KindInvalidTxHash, Err: err})
		return
	}
	action := candidate.toAction()

	approved, serr := h.allowList.Verify(action)
	h.respondSigned(w, traceID, approved, serr)
}

func (h *Handler) respondSigned(w http.ResponseWriter, traceID string, action *types.BridgeAction, serr *types.SignerError) {
	if serr != nil {
		log.Debug().Str("trace_id", traceID).Str("kind", string(serr.Kind)).Err(serr.Err).Msg("signing request rejected")
		writeError(w, traceID, serr)
		return
	}

	signed, err := types.Sign(action, h.keyPair)
	if err != nil {
		log.Error().Str("trace_id", traceID).Err(err).Msg("signing approved action failed")
		writeError(w, traceID, &types.SignerError{Kind: types.KindBridgeEventNotActionable, Err: err})
		return
	}

	writeJSON(w, http.StatusOK, signedActionResponse{
		Authority: hex.EncodeToString(signed.Authority[:]),
		Signature: hex.EncodeToString(signed.Signature),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, traceID string, serr *types.SignerError) {
	w.Header().Set("X-Trace-Id", traceID)
	writeJSON(w, serr.HTTPStatus(), errorResponse{Kind: string(serr.Kind), Message: serr.Error()})
}
