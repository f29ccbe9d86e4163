package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"cosmossdk.io/math"

	"github.com/openalpha/poolvault/api/types"
)

// VaultHandler handles vault API requests
type VaultHandler struct {
	service types.VaultService
}

// NewVaultHandler creates a new VaultHandler
func NewVaultHandler(svc types.VaultService) *VaultHandler {
	return &VaultHandler{
		service: svc,
	}
}

// ErrorResponse is the shape every error reply uses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": ErrorResponse{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Helper to extract path parameters (since we're using http.ServeMux not gorilla/mux)
func extractPathParam(path, prefix, suffix string) string {
	path = strings.TrimPrefix(path, prefix)
	if suffix != "" {
		path = strings.TrimSuffix(path, suffix)
	}
	return path
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

// GetPoolState handles GET /v1/vault/state
func (h *VaultHandler) GetPoolState(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.GetPoolState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// GetConfig handles GET /v1/vault/config
func (h *VaultHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetConfig()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// GetUserBalance handles GET /v1/vault/user/{address}/balance
func (h *VaultHandler) GetUserBalance(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get("X-User-Address")
	if user == "" {
		user = extractPathParam(r.URL.Path, "/v1/vault/user/", "/balance")
	}
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing_user", "user address is required")
		return
	}

	balance, err := h.service.GetUserBalance(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

// GetUserRequests handles GET /v1/vault/user/{address}/requests
func (h *VaultHandler) GetUserRequests(w http.ResponseWriter, r *http.Request) {
	user := r.Header.Get("X-User-Address")
	if user == "" {
		user = extractPathParam(r.URL.Path, "/v1/vault/user/", "/requests")
	}
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing_user", "user address is required")
		return
	}

	requests, err := h.service.GetUserRequests(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":     user,
		"requests": requests,
		"total":    len(requests),
	})
}

// GetRateHistory handles GET /v1/vault/rate-history
func (h *VaultHandler) GetRateHistory(w http.ResponseWriter, r *http.Request) {
	from := int64(queryInt(r, "from", 0))
	to := int64(queryInt(r, "to", 0))

	points, err := h.service.GetRateHistory(from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"points": points,
		"total":  len(points),
	})
}

// GetFeeDistributions handles GET /v1/vault/fee-distributions
func (h *VaultHandler) GetFeeDistributions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)

	records, err := h.service.GetFeeDistributions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   len(records),
	})
}

// GetPendingWithdrawals handles GET /v1/vault/withdrawals/pending
func (h *VaultHandler) GetPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)

	requests, err := h.service.GetPendingWithdrawals(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    len(requests),
	})
}

// EstimateDeposit handles GET /v1/vault/estimate/deposit
func (h *VaultHandler) EstimateDeposit(w http.ResponseWriter, r *http.Request) {
	amountStr := r.URL.Query().Get("amount")
	if amountStr == "" {
		writeError(w, http.StatusBadRequest, "missing_amount", "amount query parameter is required")
		return
	}
	amount, ok := math.NewIntFromString(amountStr)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "invalid amount format")
		return
	}

	estimate, err := h.service.EstimateDeposit(amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "estimate_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

// EstimateMint handles GET /v1/vault/estimate/mint
func (h *VaultHandler) EstimateMint(w http.ResponseWriter, r *http.Request) {
	sharesStr := r.URL.Query().Get("shares")
	if sharesStr == "" {
		writeError(w, http.StatusBadRequest, "missing_shares", "shares query parameter is required")
		return
	}
	shares, ok := math.NewIntFromString(sharesStr)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_shares", "invalid shares format")
		return
	}

	estimate, err := h.service.EstimateMint(shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "estimate_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

// EstimateRedeem handles GET /v1/vault/estimate/redeem
func (h *VaultHandler) EstimateRedeem(w http.ResponseWriter, r *http.Request) {
	sharesStr := r.URL.Query().Get("shares")
	if sharesStr == "" {
		writeError(w, http.StatusBadRequest, "missing_shares", "shares query parameter is required")
		return
	}
	shares, ok := math.NewIntFromString(sharesStr)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_shares", "invalid shares format")
		return
	}

	estimate, err := h.service.EstimateRedeem(shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "estimate_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, estimate)
}

// Deposit handles POST /v1/vault/deposit
func (h *VaultHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User     string `json:"user"`
		Receiver string `json:"receiver,omitempty"`
		Amount   string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.User == "" || req.Amount == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "user and amount are required")
		return
	}
	amount, ok := math.NewIntFromString(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "invalid amount format")
		return
	}

	result, err := h.service.Deposit(req.User, req.Receiver, amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "deposit_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Mint handles POST /v1/vault/mint
func (h *VaultHandler) Mint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User     string `json:"user"`
		Receiver string `json:"receiver,omitempty"`
		Shares   string `json:"shares"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.User == "" || req.Shares == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "user and shares are required")
		return
	}
	shares, ok := math.NewIntFromString(req.Shares)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_shares", "invalid shares format")
		return
	}

	result, err := h.service.Mint(req.User, req.Receiver, shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "mint_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// RequestWithdrawal handles POST /v1/vault/withdrawal/request
func (h *VaultHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User       string `json:"user"`
		Receiver   string `json:"receiver,omitempty"`
		Shares     string `json:"shares"`
		MaxLossBps uint64 `json:"max_loss_bps"`
		Solver     bool   `json:"allow_solver"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.User == "" || req.Shares == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "user and shares are required")
		return
	}
	shares, ok := math.NewIntFromString(req.Shares)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_shares", "invalid shares format")
		return
	}

	result, err := h.service.RequestWithdrawal(req.User, req.Receiver, shares, req.MaxLossBps, req.Solver)
	if err != nil {
		writeError(w, http.StatusBadRequest, "withdrawal_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ClaimWithdrawal handles POST /v1/vault/withdrawal/claim
func (h *VaultHandler) ClaimWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User      string `json:"user"`
		RequestID uint64 `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.User == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "user and request_id are required")
		return
	}

	result, err := h.service.ClaimWithdrawal(req.User, req.RequestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "claim_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CompleteWithdrawal handles POST /v1/vault/withdrawal/complete
func (h *VaultHandler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Solver    string `json:"solver"`
		RequestID uint64 `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Solver == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "solver and request_id are required")
		return
	}

	result, err := h.service.CompleteWithdrawal(req.Solver, req.RequestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "complete_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateRate handles POST /v1/vault/update
func (h *VaultHandler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Strategist     string `json:"strategist"`
		NewRate        string `json:"new_rate"`
		WithdrawFeeBps uint64 `json:"withdraw_fee_bps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	if req.Strategist == "" || req.NewRate == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "strategist and new_rate are required")
		return
	}
	newRate, ok := math.NewIntFromString(req.NewRate)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_rate", "invalid rate format")
		return
	}

	result, err := h.service.UpdateRate(req.Strategist, newRate, req.WithdrawFeeBps)
	if err != nil {
		writeError(w, http.StatusBadRequest, "update_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}
