package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/chains/ethchain"
	"github.com/ChainSafe/starcoin-bridge/internal/testutil"
	"github.com/ChainSafe/starcoin-bridge/types"
)

func jsonReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

func TestHandleSignEthTxApprovesAndSigns(t *testing.T) {
	bridgeAddr := common.HexToAddress("0xBBBB000000000000000000000000000000bbbb")
	sender := common.HexToAddress("0x00000000000000000000000000000000001234")
	txHash := crypto.Keccak256Hash([]byte("tx-handler"))

	chain := testutil.NewFakeEthChain()
	chain.FinalizedBlock = 200
	chain.Receipts[txHash] = &ethchain.Receipt{
		BlockNumber: 100,
		Logs:        []ethchain.Log{buildDepositLog(t, bridgeAddr, sender)},
	}

	kp, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)

	h, err := NewHandler(kp, NewEthActionVerifier(chain, bridgeAddr), nil, NewGovernanceAllowList())
	require.NoError(t, err)

	router := NewRouter(h)
	req := httptest.NewRequest(http.MethodGet, "/sign/eth_tx/"+txHash.Hex()+"/0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body signedActionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Signature)
}

func TestHandleSignEthTxRejectsBadEventIdx(t *testing.T) {
	chain := testutil.NewFakeEthChain()
	kp, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)

	h, err := NewHandler(kp, NewEthActionVerifier(chain, common.Address{}), nil, NewGovernanceAllowList())
	require.NoError(t, err)

	router := NewRouter(h)
	req := httptest.NewRequest(http.MethodGet, "/sign/eth_tx/"+common.Hash{}.Hex()+"/not-a-number", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSignGovernanceApprovesAllowListedAction(t *testing.T) {
	kp, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)

	allowList := NewGovernanceAllowList()
	action := types.NewEmergencyAction(types.ChainIDEthMainnet, 1, types.EmergencyOpPause)
	allowList.Approve(action)

	h, err := NewHandler(kp, nil, nil, allowList)
	require.NoError(t, err)

	router := NewRouter(h)
	body, err := json.Marshal(governanceActionJSON{
		Kind:    types.ActionKindEmergency,
		ChainID: types.ChainIDEthMainnet,
		Nonce:   1,
		Op:      emergencyOpPtr(types.EmergencyOpPause),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sign/governance", jsonReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSignGovernanceRejectsUnapproved(t *testing.T) {
	kp, err := bridgecrypto.GenerateAuthorityKeyPair()
	require.NoError(t, err)

	h, err := NewHandler(kp, nil, nil, NewGovernanceAllowList())
	require.NoError(t, err)

	router := NewRouter(h)
	body, err := json.Marshal(governanceActionJSON{
		Kind:    types.ActionKindEmergency,
		ChainID: types.ChainIDEthMainnet,
		Nonce:   1,
		Op:      emergencyOpPtr(types.EmergencyOpPause),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sign/governance", jsonReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	require.Equal(t, string(types.KindGovernanceActionIsNotApproved), errBody.Kind)
}

func emergencyOpPtr(op types.EmergencyOp) *types.EmergencyOp { return &op }
