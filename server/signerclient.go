package server

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	bridgecrypto "github.com/ChainSafe/starcoin-bridge/crypto"
	"github.com/ChainSafe/starcoin-bridge/types"
)

// HTTPSignerClient is the production aggregator.SignerClient, issuing
// a request to one committee member's signing HTTP API (spec.md
// §6.1). It serves governance actions, the one action family whose
// signing request is fully self-describing: the candidate action
// itself is the request body, matched against the remote authority's
// own allow-list.
//
// Token transfers and other event-sourced actions are instead signed
// by tx_hash/event_idx (GET /sign/eth_tx/.../... or /sign/move_tx/...
// /...), which requires the originating event's on-chain position —
// a piece of provenance events.DecodedEvent/storage.PendingRecord do
// not currently carry past decode time. Wiring that path is a follow-
// up (see DESIGN.md's Open Question decisions); this client returns
// an error for non-governance action kinds rather than silently
// misrouting the request.
type HTTPSignerClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPSignerClient builds a client against one authority's
// advertised BaseURL (types.AuthorityInfo.BaseURL).
func NewHTTPSignerClient(baseURL string, httpClient *http.Client) *HTTPSignerClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPSignerClient{baseURL: baseURL, http: httpClient}
}

func (c *HTTPSignerClient) RequestSign(ctx context.Context, action *types.BridgeAction) (*types.SignedAction, error) {
	if !isGovernanceKind(action.Kind) {
		return nil, fmt.Errorf("HTTPSignerClient: action kind %s has no tx-provenance signing route wired yet", action.Kind)
	}

	body, err := json.Marshal(governanceActionJSONFrom(action))
	if err != nil {
		return nil, fmt.Errorf("encoding governance action request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sign/governance", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building sign request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting signature from %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading signing response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr == nil {
			if errResp.Kind == string(types.KindTxNotFinalized) {
				return nil, fmt.Errorf("%w: %s", types.ErrTxNotFinalized, errResp.Message)
			}
			return nil, fmt.Errorf("signing request rejected (%s): %s", errResp.Kind, errResp.Message)
		}
		return nil, fmt.Errorf("signing request failed with status %d", resp.StatusCode)
	}

	var signed signedActionResponse
	if err := json.Unmarshal(respBody, &signed); err != nil {
		return nil, fmt.Errorf("decoding signing response: %w", err)
	}

	authorityBytes, err := hex.DecodeString(signed.Authority)
	if err != nil {
		return nil, fmt.Errorf("decoding signer authority hex: %w", err)
	}
	authority, err := bridgecrypto.ParseAuthorityPublicKey(authorityBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing signer authority public key: %w", err)
	}
	sigBytes, err := hex.DecodeString(signed.Signature)
	if err != nil {
		return nil, fmt.Errorf("decoding signature hex: %w", err)
	}

	return &types.SignedAction{Action: action, Authority: authority, Signature: sigBytes}, nil
}
