package rpc

import (
	"net/http"
)

type createEscrowParams struct {
	Caller    string `json:"caller"`
	AssetID   uint64 `json:"assetId"`
	Buyer     string `json:"buyer"`
	Agent     string `json:"agent,omitempty"`
	Inspector string `json:"inspector,omitempty"`
	Deposit   string `json:"deposit"`
	Deadline  int64  `json:"deadline"`
}

func (s *Server) handleCreateEscrow(w http.ResponseWriter, req *RPCRequest) {
	var params createEscrowParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	agent, err := parseOptionalAddress(params.Agent)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	inspector, err := parseOptionalAddress(params.Inspector)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	deposit, err := parseAmount(params.Deposit)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	esc, err := s.node.CreateEscrow(caller, params.AssetID, buyer, agent, inspector, deposit, params.Deadline)
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, escrowResult(esc))
}

type callerEscrowParams struct {
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
}

func (s *Server) handleFundEscrow(w http.ResponseWriter, req *RPCRequest) {
	var params callerEscrowParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.FundEscrow(params.ID, caller); err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"funded": true})
}

func (s *Server) handleApproveEscrow(w http.ResponseWriter, req *RPCRequest) {
	var params callerEscrowParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	outcome, err := s.node.ApproveEscrow(params.ID, caller)
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]interface{}{
		"role":          outcome.Role.String(),
		"quorumReached": outcome.QuorumReached,
	})
}

type escrowIDParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleCompleteEscrow(w http.ResponseWriter, req *RPCRequest) {
	var params escrowIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	if err := s.node.CompleteEscrow(params.ID); err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"completed": true})
}

type disputeParams struct {
	Caller    string `json:"caller"`
	ID        uint64 `json:"id"`
	Reason    string `json:"reason"`
	Emergency bool   `json:"emergency"`
}

func (s *Server) handleDisputeOrCancel(w http.ResponseWriter, req *RPCRequest) {
	var params disputeParams
	if !decodeParams(w, req, &params) {
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	outcome, err := s.node.DisputeOrCancelEscrow(params.ID, caller, params.Reason, params.Emergency)
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"cancelled": outcome.Cancelled})
}

func (s *Server) handleGetEscrow(w http.ResponseWriter, req *RPCRequest) {
	var params escrowIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	esc, err := s.node.GetEscrow(params.ID)
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, escrowResult(esc))
}

func (s *Server) handleGetDispute(w http.ResponseWriter, req *RPCRequest) {
	var params escrowIDParams
	if !decodeParams(w, req, &params) {
		return
	}
	dispute, err := s.node.GetDispute(params.ID)
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, disputeResult(dispute))
}

func (s *Server) handleVaultBalance(w http.ResponseWriter, req *RPCRequest) {
	balance, err := s.node.VaultBalance()
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

type balanceParams struct {
	Address string `json:"address"`
}

func (s *Server) handleGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params balanceParams
	if !decodeParams(w, req, &params) {
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.GetBalance(addr)
	if err != nil {
		engineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, BalanceResult{Address: params.Address, Balance: balance.String()})
}

type listEventsParams struct {
	Prefix string `json:"prefix,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

func (s *Server) handleListEvents(w http.ResponseWriter, req *RPCRequest) {
	params := listEventsParams{}
	if len(req.Params) > 0 && !decodeParams(w, req, &params) {
		return
	}
	stored := s.node.Events(params.Prefix, params.Limit)
	results := make([]EventResult, 0, len(stored))
	for _, evt := range stored {
		results = append(results, EventResult{
			Sequence:   evt.Sequence,
			Type:       evt.Type,
			Attributes: evt.Attributes,
		})
	}
	writeResult(w, req.ID, results)
}
