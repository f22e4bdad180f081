package rpc

import (
	"encoding/json"
	"net/http"
)

type registerAssetParams struct {
	Owner     string `json:"owner"`
	TitleHash string `json:"titleHash"`
	Value     string `json:"value"`
	Location  string `json:"location"`
}

func (s *Server) handleRegisterAsset(w http.ResponseWriter, req *RPCRequest) {
	var params registerAssetParams
	if !decodeParams(w, req, &params) {
		return
	}
	owner, err := parseAddress(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	titleHash, err := parseTitleHash(params.TitleHash)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	asset, err := s.node.RegisterAsset(owner, titleHash, value, params.Location)
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, assetResult(asset))
}

type callerAssetParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

func (s *Server) handleVerifyAsset(w http.ResponseWriter, req *RPCRequest) {
	var params callerAssetParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.VerifyAsset(caller, params.ID); err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"verified": true})
}

type assetIDParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleGetAsset(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	asset, err := s.node.GetAsset(params.ID)
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, assetResult(asset))
}

func (s *Server) handleDeactivateAsset(w http.ResponseWriter, req *RPCRequest) {
	var params callerAssetParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.DeactivateAsset(caller, params.ID); err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"deactivated": true})
}

// decodeParams unmarshals the single positional params object. It writes the
// error response itself and reports whether decoding succeeded.
func decodeParams(w http.ResponseWriter, req *RPCRequest, out interface{}) bool {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "expected one params object", nil)
		return false
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params payload", err.Error())
		return false
	}
	return true
}
