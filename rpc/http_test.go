package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Ebendttl/SwiftEstate/core"
	"github.com/Ebendttl/SwiftEstate/core/genesis"
	"github.com/Ebendttl/SwiftEstate/crypto"
	"github.com/Ebendttl/SwiftEstate/native/fees"
	"github.com/Ebendttl/SwiftEstate/storage"
)

const testToken = "test-rpc-token"

type rpcFixture struct {
	server *Server
	node   *core.Node

	admin  string
	seller string
	buyer  string
}

func rawAddr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newRPCFixture(t *testing.T) *rpcFixture {
	t.Helper()

	admin := rawAddr(0x05)
	seller := rawAddr(0x01)
	buyer := rawAddr(0x02)

	node := core.NewNode(storage.NewMemDB(), admin, fees.Policy{RateBps: 250, Treasury: admin})
	node.SetNowFunc(func() int64 { return 1000 })

	spec := &genesis.Spec{
		Admin: crypto.EncodeRaw(admin),
		Alloc: map[string]string{
			crypto.EncodeRaw(buyer): "10000000",
		},
	}
	require.NoError(t, node.ApplyGenesis(spec))

	server := NewServer(node, NewAuthenticator(AuthConfig{StaticToken: testToken}))
	return &rpcFixture{
		server: server,
		node:   node,
		admin:  crypto.EncodeRaw(admin),
		seller: crypto.EncodeRaw(seller),
		buyer:  crypto.EncodeRaw(buyer),
	}
}

func (f *rpcFixture) call(t *testing.T, method string, params interface{}, token string) (*httptest.ResponseRecorder, *RPCResponse) {
	t.Helper()

	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		body["params"] = []interface{}{params}
	}
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.server.handle(recorder, req)

	resp := &RPCResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), resp))
	return recorder, resp
}

func (f *rpcFixture) registerVerifiedAsset(t *testing.T, value string) uint64 {
	t.Helper()

	titleHash := crypto.TitleHash([]byte("deed-1"))
	_, resp := f.call(t, "registry_register", registerAssetParams{
		Owner:     f.seller,
		TitleHash: hex.EncodeToString(titleHash[:]),
		Value:     value,
		Location:  "12 Harbor Road",
	}, testToken)
	require.Nil(t, resp.Error)

	asset := decodeResult[AssetResult](t, resp)
	_, verifyResp := f.call(t, "registry_verify", callerAssetParams{Caller: f.admin, ID: asset.ID}, testToken)
	require.Nil(t, verifyResp.Error)
	return asset.ID
}

func decodeResult[T any](t *testing.T, resp *RPCResponse) T {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRPCEscrowLifecycle(t *testing.T) {
	f := newRPCFixture(t)
	assetID := f.registerVerifiedAsset(t, "1000000")

	_, createResp := f.call(t, "escrow_create", createEscrowParams{
		Caller:   f.seller,
		AssetID:  assetID,
		Buyer:    f.buyer,
		Deposit:  "1000000",
		Deadline: 4600,
	}, testToken)
	require.Nil(t, createResp.Error)
	esc := decodeResult[EscrowResult](t, createResp)
	require.Equal(t, "pending", esc.Status)
	require.Equal(t, "1000000", esc.Amount)

	_, fundResp := f.call(t, "escrow_fund", callerEscrowParams{Caller: f.buyer, ID: esc.ID}, testToken)
	require.Nil(t, fundResp.Error)

	_, sellerOK := f.call(t, "escrow_approve", callerEscrowParams{Caller: f.seller, ID: esc.ID}, testToken)
	require.Nil(t, sellerOK.Error)
	_, buyerOK := f.call(t, "escrow_approve", callerEscrowParams{Caller: f.buyer, ID: esc.ID}, testToken)
	require.Nil(t, buyerOK.Error)
	approval := decodeResult[map[string]interface{}](t, buyerOK)
	require.Equal(t, true, approval["quorumReached"])

	_, completeResp := f.call(t, "escrow_complete", escrowIDParams{ID: esc.ID}, testToken)
	require.Nil(t, completeResp.Error)

	_, balanceResp := f.call(t, "swift_getBalance", balanceParams{Address: f.seller}, "")
	require.Nil(t, balanceResp.Error)
	balance := decodeResult[BalanceResult](t, balanceResp)
	require.Equal(t, "975000", balance.Balance)

	_, assetResp := f.call(t, "registry_get", assetIDParams{ID: assetID}, "")
	require.Nil(t, assetResp.Error)
	asset := decodeResult[AssetResult](t, assetResp)
	require.Equal(t, f.buyer, asset.Owner)
}

func TestRPCMutatingMethodsRequireAuth(t *testing.T) {
	f := newRPCFixture(t)

	recorder, resp := f.call(t, "escrow_fund", callerEscrowParams{Caller: f.buyer, ID: 1}, "")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	recorder, resp = f.call(t, "escrow_fund", callerEscrowParams{Caller: f.buyer, ID: 1}, "wrong-token")
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.NotNil(t, resp.Error)
}

func TestRPCReadMethodsOpen(t *testing.T) {
	f := newRPCFixture(t)

	recorder, resp := f.call(t, "escrow_vaultBalance", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Nil(t, resp.Error)
}

func TestRPCUnknownMethod(t *testing.T) {
	f := newRPCFixture(t)

	recorder, resp := f.call(t, "escrow_unknown", nil, "")
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestRPCEngineErrorsMapToCodes(t *testing.T) {
	f := newRPCFixture(t)

	recorder, resp := f.call(t, "escrow_get", escrowIDParams{ID: 99}, "")
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeNotFound, resp.Error.Code)

	assetID := f.registerVerifiedAsset(t, "1000000")
	_, createResp := f.call(t, "escrow_create", createEscrowParams{
		Caller:   f.buyer, // not the owner
		AssetID:  assetID,
		Buyer:    f.buyer,
		Deposit:  "1000",
		Deadline: 4600,
	}, testToken)
	require.NotNil(t, createResp.Error)
	require.Equal(t, codeForbidden, createResp.Error.Code)
}

func TestRPCInvalidPayloads(t *testing.T) {
	f := newRPCFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not-json")))
	recorder := httptest.NewRecorder()
	f.server.handle(recorder, req)
	resp := &RPCResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeParseError, resp.Error.Code)

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(nil))
	recorder = httptest.NewRecorder()
	f.server.handle(recorder, req)
	resp = &RPCResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidRequest, resp.Error.Code)

	_, addrResp := f.call(t, "swift_getBalance", balanceParams{Address: "not-an-address"}, "")
	require.NotNil(t, addrResp.Error)
	require.Equal(t, codeInvalidParams, addrResp.Error.Code)
}

func TestRPCListEvents(t *testing.T) {
	f := newRPCFixture(t)
	f.registerVerifiedAsset(t, "5000")

	_, resp := f.call(t, "swift_listEvents", listEventsParams{Prefix: "registry."}, "")
	require.Nil(t, resp.Error)
	events := decodeResult[[]EventResult](t, resp)
	require.Len(t, events, 2)
	require.Equal(t, "registry.asset.registered", events[0].Type)
	require.Equal(t, "registry.asset.verified", events[1].Type)
}

func TestRPCJWTAuth(t *testing.T) {
	secret := "0123456789abcdef"
	f := newRPCFixture(t)
	f.server.auth = NewAuthenticator(AuthConfig{
		JWTEnabled: true,
		HMACSecret: secret,
		Issuer:     "swiftd",
		Audience:   "swift-rpc",
	})

	claims := jwt.MapClaims{
		"iss": "swiftd",
		"aud": "swift-rpc",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	assetID := f.registerVerifiedAssetWithToken(t, signed)
	require.NotZero(t, assetID)

	// A token signed with a different secret is rejected.
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	recorder, resp := f.call(t, "registry_verify", callerAssetParams{Caller: f.admin, ID: assetID}, forged)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	require.NotNil(t, resp.Error)
}

func (f *rpcFixture) registerVerifiedAssetWithToken(t *testing.T, token string) uint64 {
	t.Helper()

	titleHash := crypto.TitleHash([]byte(fmt.Sprintf("deed-%d", time.Now().UnixNano())))
	_, resp := f.call(t, "registry_register", registerAssetParams{
		Owner:     f.seller,
		TitleHash: hex.EncodeToString(titleHash[:]),
		Value:     "5000",
		Location:  "1 Main Street",
	}, token)
	require.Nil(t, resp.Error)
	asset := decodeResult[AssetResult](t, resp)

	_, verifyResp := f.call(t, "registry_verify", callerAssetParams{Caller: f.admin, ID: asset.ID}, token)
	require.Nil(t, verifyResp.Error)
	return asset.ID
}
