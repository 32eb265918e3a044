package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aji70/pay-nova/core/events"
	"github.com/aji70/pay-nova/native/paynova"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	authTokenEnv = "PAYNOVA_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000

	codeLedgerInvalidParams = -32021
	codeLedgerNotFound      = -32022
	codeLedgerForbidden     = -32023
	codeLedgerConflict      = -32024
	codeLedgerInsufficient  = -32025
	codeLedgerTransfer      = -32026
)

// Server exposes the payment ledger over JSON-RPC. Mutating methods require a
// bearer token when one is configured through the environment.
type Server struct {
	engine    *paynova.Engine
	recorder  *events.Recorder
	authToken string
	log       *slog.Logger
}

// NewServer creates an RPC server bound to the supplied engine. The recorder
// backs the paynova_listEvents audit query and may be nil.
func NewServer(engine *paynova.Engine, recorder *events.Recorder, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:    engine,
		recorder:  recorder,
		authToken: strings.TrimSpace(os.Getenv(authTokenEnv)),
		log:       log,
	}
}

// Router returns the HTTP handler serving the JSON-RPC endpoint alongside the
// health and metrics endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Start serves the router on addr and blocks until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", slog.String("addr", addr))
	return http.ListenAndServe(addr, s.Router())
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

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, 0, codeParseError, "parse_error", err.Error())
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, 0, codeParseError, "parse_error", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid_request", "unsupported jsonrpc version")
		return
	}
	switch req.Method {
	case "paynova_generate":
		s.withAuth(w, r, &req, s.handleGenerate)
	case "paynova_settle":
		s.withAuth(w, r, &req, s.handleSettle)
	case "paynova_cancel":
		s.withAuth(w, r, &req, s.handleCancel)
	case "paynova_getRecord":
		s.handleGetRecord(w, r, &req)
	case "paynova_listEvents":
		s.handleListEvents(w, r, &req)
	case "paynova_newReference":
		s.handleNewReference(w, r, &req)
	case "paynova_vaultBalance":
		s.handleVaultBalance(w, r, &req)
	case "paynova_withdraw":
		s.withAuth(w, r, &req, s.handleWithdraw)
	case "paynova_transferOwnership":
		s.withAuth(w, r, &req, s.handleTransferOwnership)
	case "paynova_fund":
		s.withAuth(w, r, &req, s.handleFund)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method_not_found", req.Method)
	}
}

type handlerFunc func(http.ResponseWriter, *http.Request, *RPCRequest)

// withAuth gates mutating methods behind the configured bearer token. An
// empty token disables authentication for local development.
func (s *Server) withAuth(w http.ResponseWriter, r *http.Request, req *RPCRequest, next handlerFunc) {
	if s.authToken != "" {
		supplied := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) != 1 {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
	}
	next(w, r, req)
}

func writeResult(w http.ResponseWriter, id int, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status, id, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message, Data: data},
	})
}
