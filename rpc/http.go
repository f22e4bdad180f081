package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ebendttl/SwiftEstate/core"
	"github.com/Ebendttl/SwiftEstate/native/escrow"
	"github.com/Ebendttl/SwiftEstate/native/registry"
	"github.com/Ebendttl/SwiftEstate/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32004
	codeForbidden      = -32005
	codeInvalidStatus  = -32010
	codeInsufficient   = -32011
)

type Server struct {
	node *core.Node
	auth *Authenticator
	http *http.Server
}

func NewServer(node *core.Node, auth *Authenticator) *Server {
	if auth == nil {
		auth = NewAuthenticator(AuthConfig{})
	}
	return &Server{node: node, auth: auth}
}

// Start serves JSON-RPC on addr until Shutdown is called. It blocks, returning
// the listener error if one occurs.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// engineError maps typed engine errors onto JSON-RPC error codes and HTTP
// statuses so clients can branch without string matching.
func engineError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusInternalServerError
	code := codeServerError
	switch {
	case errors.Is(err, escrow.ErrNotFound), errors.Is(err, escrow.ErrAssetNotFound), errors.Is(err, registry.ErrNotFound):
		status = http.StatusNotFound
		code = codeNotFound
	case errors.Is(err, escrow.ErrUnauthorized), errors.Is(err, registry.ErrUnauthorized):
		status = http.StatusForbidden
		code = codeForbidden
	case errors.Is(err, escrow.ErrInvalidStatus):
		status = http.StatusConflict
		code = codeInvalidStatus
	case errors.Is(err, escrow.ErrInsufficientFunds):
		status = http.StatusConflict
		code = codeInsufficient
	case errors.Is(err, escrow.ErrInvalidInput), errors.Is(err, registry.ErrInvalidAsset):
		status = http.StatusBadRequest
		code = codeInvalidParams
	}
	writeError(w, status, id, code, err.Error(), nil)
}

type rpcHandler struct {
	module    string
	authOnly  bool
	serveFunc func(w http.ResponseWriter, req *RPCRequest)
}

func (s *Server) routes() map[string]rpcHandler {
	return map[string]rpcHandler{
		"registry_register":   {module: "registry", authOnly: true, serveFunc: s.handleRegisterAsset},
		"registry_verify":     {module: "registry", authOnly: true, serveFunc: s.handleVerifyAsset},
		"registry_get":        {module: "registry", serveFunc: s.handleGetAsset},
		"registry_deactivate": {module: "registry", authOnly: true, serveFunc: s.handleDeactivateAsset},

		"escrow_create":          {module: "escrow", authOnly: true, serveFunc: s.handleCreateEscrow},
		"escrow_fund":            {module: "escrow", authOnly: true, serveFunc: s.handleFundEscrow},
		"escrow_approve":         {module: "escrow", authOnly: true, serveFunc: s.handleApproveEscrow},
		"escrow_complete":        {module: "escrow", authOnly: true, serveFunc: s.handleCompleteEscrow},
		"escrow_disputeOrCancel": {module: "escrow", authOnly: true, serveFunc: s.handleDisputeOrCancel},
		"escrow_get":             {module: "escrow", serveFunc: s.handleGetEscrow},
		"escrow_getDispute":      {module: "escrow", serveFunc: s.handleGetDispute},
		"escrow_vaultBalance":    {module: "escrow", serveFunc: s.handleVaultBalance},

		"swift_getBalance": {module: "bank", serveFunc: s.handleGetBalance},
		"swift_listEvents": {module: "events", serveFunc: s.handleListEvents},
	}
}

// handle is the main request handler that routes to specific handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, ok := s.routes()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
		return
	}
	if handler.authOnly {
		if authErr := s.auth.Authorize(r); authErr != nil {
			observability.ModuleMetrics().Observe(handler.module, req.Method, http.StatusUnauthorized, 0)
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, authErr.Error(), nil)
			return
		}
	}

	start := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	handler.serveFunc(recorder, req)
	observability.ModuleMetrics().Observe(handler.module, req.Method, recorder.status, time.Since(start))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
