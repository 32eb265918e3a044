package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aji70/pay-nova/native/common"
	"github.com/aji70/pay-nova/native/paynova"
	"github.com/aji70/pay-nova/observability"
)

type generateParams struct {
	Caller    string `json:"caller"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Token     string `json:"token,omitempty"`
	Reference string `json:"reference"`
}

type settleParams struct {
	Caller string `json:"caller"`
	ID     string `json:"id"`
	// Sent is the pre-authorized pull amount for token records and the
	// attached value for native records.
	Sent string `json:"sent"`
}

type cancelParams struct {
	Caller string `json:"caller"`
	ID     string `json:"id"`
}

type getRecordParams struct {
	Reference string `json:"reference,omitempty"`
	ID        string `json:"id,omitempty"`
}

type withdrawParams struct {
	Caller string `json:"caller"`
	Token  string `json:"token,omitempty"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type transferOwnershipParams struct {
	Caller   string `json:"caller"`
	NewOwner string `json:"newOwner"`
}

type fundParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type transactionJSON struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
	Refunded  string `json:"refunded"`
}

func transactionToJSON(tx *paynova.Transaction) *transactionJSON {
	if tx == nil {
		return nil
	}
	return &transactionJSON{
		From:      "0x" + hex.EncodeToString(tx.From[:]),
		To:        "0x" + hex.EncodeToString(tx.To[:]),
		Amount:    tx.Amount.String(),
		Token:     "0x" + hex.EncodeToString(tx.Token[:]),
		Timestamp: tx.Timestamp,
		Status:    tx.Status.String(),
		Refunded:  tx.Refunded.String(),
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	var params generateParams
	if err := decodeParams(req, &params); err != nil {
		s.fail(w, req, start, "paynova_generate", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.fail(w, req, start, "paynova_generate", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("caller: %w", err))
		return
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		s.fail(w, req, start, "paynova_generate", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("recipient: %w", err))
		return
	}
	token, err := parseOptionalAddress(params.Token)
	if err != nil {
		s.fail(w, req, start, "paynova_generate", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("token: %w", err))
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		s.fail(w, req, start, "paynova_generate", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	id, err := s.engine.Generate(caller, recipient, amount, token, params.Reference)
	if err != nil {
		s.failLedger(w, req, start, "paynova_generate", err)
		return
	}
	observability.Ledger().Observe("paynova_generate", start, "")
	writeResult(w, req.ID, map[string]string{"id": "0x" + hex.EncodeToString(id[:])})
}

func (s *Server) handleSettle(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	var params settleParams
	if err := decodeParams(req, &params); err != nil {
		s.fail(w, req, start, "paynova_settle", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.fail(w, req, start, "paynova_settle", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("caller: %w", err))
		return
	}
	id, err := parseHash(params.ID)
	if err != nil {
		s.fail(w, req, start, "paynova_settle", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	sent, err := parsePositiveBigInt(params.Sent)
	if err != nil {
		s.fail(w, req, start, "paynova_settle", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	refunded, err := s.engine.Settle(caller, id, sent)
	if err != nil {
		s.failLedger(w, req, start, "paynova_settle", err)
		return
	}
	observability.Ledger().Observe("paynova_settle", start, "")
	writeResult(w, req.ID, map[string]string{"refunded": refunded.String()})
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	var params cancelParams
	if err := decodeParams(req, &params); err != nil {
		s.fail(w, req, start, "paynova_cancel", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.fail(w, req, start, "paynova_cancel", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("caller: %w", err))
		return
	}
	id, err := parseHash(params.ID)
	if err != nil {
		s.fail(w, req, start, "paynova_cancel", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	if err := s.engine.Cancel(caller, id); err != nil {
		s.failLedger(w, req, start, "paynova_cancel", err)
		return
	}
	observability.Ledger().Observe("paynova_cancel", start, "")
	writeResult(w, req.ID, map[string]string{"status": paynova.StatusCancelled.String()})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	var params getRecordParams
	if err := decodeParams(req, &params); err != nil {
		s.fail(w, req, start, "paynova_getRecord", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	var (
		tx     *paynova.Transaction
		exists bool
		err    error
	)
	switch {
	case strings.TrimSpace(params.Reference) != "":
		tx, exists, err = s.engine.GetRecord(params.Reference)
	case strings.TrimSpace(params.ID) != "":
		var id [32]byte
		id, err = parseHash(params.ID)
		if err == nil {
			tx, exists, err = s.engine.GetRecordByHash(id)
		}
	default:
		err = fmt.Errorf("either reference or id is required")
	}
	if err != nil {
		s.fail(w, req, start, "paynova_getRecord", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	observability.Ledger().Observe("paynova_getRecord", start, "")
	writeResult(w, req.ID, map[string]interface{}{
		"found":       exists,
		"transaction": transactionToJSON(tx),
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	if s.recorder == nil {
		observability.Ledger().Observe("paynova_listEvents", start, "")
		writeResult(w, req.ID, []interface{}{})
		return
	}
	observability.Ledger().Observe("paynova_listEvents", start, "")
	writeResult(w, req.ID, s.recorder.List())
}

// handleNewReference hands out a fresh globally-unique reference string for
// callers that do not want to derive their own.
func (s *Server) handleNewReference(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	reference := uuid.NewString()
	id := paynova.ReferenceHash(reference)
	observability.Ledger().Observe("paynova_newReference", start, "")
	writeResult(w, req.ID, map[string]string{
		"reference": reference,
		"id":        "0x" + hex.EncodeToString(id[:]),
	})
}

func (s *Server) handleVaultBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	balance, err := s.engine.VaultBalance()
	if err != nil {
		s.failLedger(w, req, start, "paynova_vaultBalance", err)
		return
	}
	observability.Ledger().Observe("paynova_vaultBalance", start, "")
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	var params withdrawParams
	if err := decodeParams(req, &params); err != nil {
		s.fail(w, req, start, "paynova_withdraw", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.fail(w, req, start, "paynova_withdraw", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("caller: %w", err))
		return
	}
	token, err := parseOptionalAddress(params.Token)
	if err != nil {
		s.fail(w, req, start, "paynova_withdraw", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("token: %w", err))
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		s.fail(w, req, start, "paynova_withdraw", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("to: %w", err))
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		s.fail(w, req, start, "paynova_withdraw", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	if err := s.engine.Withdraw(caller, token, to, amount); err != nil {
		s.failLedger(w, req, start, "paynova_withdraw", err)
		return
	}
	observability.Ledger().Observe("paynova_withdraw", start, "")
	writeResult(w, req.ID, map[string]string{"status": "withdrawn"})
}

func (s *Server) handleTransferOwnership(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	var params transferOwnershipParams
	if err := decodeParams(req, &params); err != nil {
		s.fail(w, req, start, "paynova_transferOwnership", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.fail(w, req, start, "paynova_transferOwnership", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("caller: %w", err))
		return
	}
	newOwner, err := parseAddress(params.NewOwner)
	if err != nil {
		s.fail(w, req, start, "paynova_transferOwnership", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("newOwner: %w", err))
		return
	}
	if err := s.engine.TransferOwnership(caller, newOwner); err != nil {
		s.failLedger(w, req, start, "paynova_transferOwnership", err)
		return
	}
	observability.Ledger().Observe("paynova_transferOwnership", start, "")
	writeResult(w, req.ID, map[string]string{"owner": params.NewOwner})
}

func (s *Server) handleFund(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	start := time.Now()
	var params fundParams
	if err := decodeParams(req, &params); err != nil {
		s.fail(w, req, start, "paynova_fund", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		s.fail(w, req, start, "paynova_fund", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("caller: %w", err))
		return
	}
	to, err := parseAddress(params.To)
	if err != nil {
		s.fail(w, req, start, "paynova_fund", codeLedgerInvalidParams, "invalid_params", fmt.Errorf("to: %w", err))
		return
	}
	amount, err := parsePositiveBigInt(params.Amount)
	if err != nil {
		s.fail(w, req, start, "paynova_fund", codeLedgerInvalidParams, "invalid_params", err)
		return
	}
	if err := s.engine.Fund(caller, to, amount); err != nil {
		s.failLedger(w, req, start, "paynova_fund", err)
		return
	}
	observability.Ledger().Observe("paynova_fund", start, "")
	writeResult(w, req.ID, map[string]string{"status": "funded"})
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if trimmed == "" {
		return addr, fmt.Errorf("empty address")
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, err
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("address must be %d bytes, got %d", len(addr), len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// parseOptionalAddress treats an empty string as the native token sentinel.
func parseOptionalAddress(value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return paynova.NativeToken, nil
	}
	return parseAddress(value)
}

func parseHash(value string) ([32]byte, error) {
	var id [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, err
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("hash must be %d bytes, got %d", len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func parsePositiveBigInt(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %q", value)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return amount, nil
}

// fail reports a request-level failure (parsing, validation at the RPC edge).
func (s *Server) fail(w http.ResponseWriter, req *RPCRequest, start time.Time, method string, code int, message string, err error) {
	observability.Ledger().Observe(method, start, message)
	writeError(w, statusForCode(code), req.ID, code, message, err.Error())
}

// failLedger maps an engine error onto the ledger error taxonomy.
func (s *Server) failLedger(w http.ResponseWriter, req *RPCRequest, start time.Time, method string, err error) {
	code, message := classify(err)
	observability.Ledger().Observe(method, start, message)
	writeError(w, statusForCode(code), req.ID, code, message, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, paynova.ErrInvalidRecipient),
		errors.Is(err, paynova.ErrInvalidAmount),
		errors.Is(err, paynova.ErrEmptyReference),
		errors.Is(err, paynova.ErrUnknownToken):
		return codeLedgerInvalidParams, "invalid_params"
	case errors.Is(err, paynova.ErrReferenceUsed):
		return codeLedgerConflict, "reference_already_used"
	case errors.Is(err, paynova.ErrNotFound):
		return codeLedgerNotFound, "not_found"
	case errors.Is(err, paynova.ErrUnauthorized):
		return codeLedgerForbidden, "unauthorized"
	case errors.Is(err, paynova.ErrInvalidState):
		return codeLedgerConflict, "invalid_state"
	case errors.Is(err, paynova.ErrInsufficientFunds):
		return codeLedgerInsufficient, "insufficient_funds"
	case errors.Is(err, paynova.ErrTransferFailed):
		return codeLedgerTransfer, "transfer_failed"
	case errors.Is(err, common.ErrModulePaused):
		return codeServerError, "module_paused"
	default:
		return codeServerError, "internal_error"
	}
}

func statusForCode(code int) int {
	switch code {
	case codeLedgerInvalidParams, codeInvalidParams:
		return http.StatusBadRequest
	case codeLedgerNotFound:
		return http.StatusNotFound
	case codeLedgerForbidden, codeUnauthorized:
		return http.StatusForbidden
	case codeLedgerConflict:
		return http.StatusConflict
	case codeLedgerInsufficient, codeLedgerTransfer:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
