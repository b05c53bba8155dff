package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
)

var (
	errBadTxHash   = errors.New("tx hash must be a 0x-prefixed 32-byte hex string")
	errBadEventIdx = errors.New("event index must be a non-negative integer")
	errNoEthRoute  = errors.New("this authority does not serve eth signing requests")
	errNoMoveRoute = errors.New("this authority does not serve move signing requests")
)

func routeVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// NewRouter builds the gorilla/mux router exposing the three signing
// endpoints of spec.md §6.1.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/sign/eth_tx/{tx_hash}/{event_idx}", h.HandleSignEthTx).Methods(http.MethodGet)
	r.HandleFunc("/sign/move_tx/{tx_digest}/{event_idx}", h.HandleSignMoveTx).Methods(http.MethodGet)
	r.HandleFunc("/sign/governance", h.HandleSignGovernance).Methods(http.MethodPost)
	return r
}
