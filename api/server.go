package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"

	clog "cosmossdk.io/log"
	"cosmossdk.io/math"

	"github.com/openalpha/poolvault/api/handlers"
	"github.com/openalpha/poolvault/api/middleware"
	"github.com/openalpha/poolvault/api/types"
	"github.com/openalpha/poolvault/api/websocket"
	"github.com/openalpha/poolvault/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config

	// Services
	vaultService types.VaultService

	// Handlers
	vaultHandler *handlers.VaultHandler

	// Rate limiter
	rateLimiter *middleware.RateLimiter
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	Strategist       string
	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates an API server backed by the real vault accounting
// engine over an in-memory store.
func NewServer(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	logger := clog.NewNopLogger()
	keeperService, err := NewVaultKeeperService(logger, config.Strategist)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault service: %w", err)
	}

	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port
	wsServer := websocket.NewServer(wsConfig)

	// All mutating calls flow through the broadcasting wrapper so
	// WebSocket subscribers see state changes without polling.
	vaultService := newBroadcastService(keeperService, wsServer.GetHub())

	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	s := &Server{
		config:       config,
		wsServer:     wsServer,
		vaultService: vaultService,
		rateLimiter:  rateLimiter,
	}

	s.vaultHandler = handlers.NewVaultHandler(s.vaultService)

	return s, nil
}

// NewServerWithService creates an API server over a caller-provided
// service, used by tests.
func NewServerWithService(config *Config, svc types.VaultService) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	s := &Server{
		config:       config,
		wsServer:     websocket.NewServer(wsConfig),
		vaultService: svc,
		rateLimiter:  middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
	}

	s.vaultHandler = handlers.NewVaultHandler(s.vaultService)

	return s
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)

	// Vault state (read-only)
	mux.HandleFunc("/v1/vault/state", getOnly(s.vaultHandler.GetPoolState))
	mux.HandleFunc("/v1/vault/config", getOnly(s.vaultHandler.GetConfig))
	mux.HandleFunc("/v1/vault/rate-history", getOnly(s.vaultHandler.GetRateHistory))
	mux.HandleFunc("/v1/vault/fee-distributions", getOnly(s.vaultHandler.GetFeeDistributions))
	mux.HandleFunc("/v1/vault/withdrawals/pending", getOnly(s.vaultHandler.GetPendingWithdrawals))

	// Estimates (read-only)
	mux.HandleFunc("/v1/vault/estimate/deposit", getOnly(s.vaultHandler.EstimateDeposit))
	mux.HandleFunc("/v1/vault/estimate/mint", getOnly(s.vaultHandler.EstimateMint))
	mux.HandleFunc("/v1/vault/estimate/redeem", getOnly(s.vaultHandler.EstimateRedeem))

	// User endpoints
	mux.HandleFunc("/v1/vault/user/", s.handleUserRoutes)

	// Transactions, behind the stricter tx limiter
	txLimit := middleware.TxRateLimitMiddleware(s.rateLimiter)
	if s.config.DisableRateLimit {
		txLimit = func(next http.Handler) http.Handler { return next }
	}
	mux.Handle("/v1/vault/deposit", txLimit(postOnly(s.vaultHandler.Deposit)))
	mux.Handle("/v1/vault/mint", txLimit(postOnly(s.vaultHandler.Mint)))
	mux.Handle("/v1/vault/withdrawal/request", txLimit(postOnly(s.vaultHandler.RequestWithdrawal)))
	mux.Handle("/v1/vault/withdrawal/claim", txLimit(postOnly(s.vaultHandler.ClaimWithdrawal)))
	mux.Handle("/v1/vault/withdrawal/complete", txLimit(postOnly(s.vaultHandler.CompleteWithdrawal)))
	mux.Handle("/v1/vault/update", txLimit(postOnly(s.vaultHandler.UpdateRate)))

	// WebSocket
	mux.HandleFunc("/ws", s.wsServer.GetHub().ServeWS)

	// Prometheus metrics
	mux.Handle("/metrics", metrics.Handler())

	// Apply middleware chain: CORS -> RateLimit -> Handler
	var handler http.Handler
	if s.config.DisableRateLimit {
		handler = corsMiddleware(mux)
	} else {
		handler = corsMiddleware(
			middleware.RateLimitMiddleware(s.rateLimiter)(mux),
		)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.wsServer.GetHub().Run()

	log.Printf("Vault API server starting on %s", addr)
	if s.config.DisableRateLimit {
		log.Printf("Rate limiting DISABLED (for testing)")
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"mode":      "standalone",
		"warning":   "This API uses in-memory storage. For production, connect to a running chain.",
	})
}

// handleUserRoutes handles /v1/vault/user/{address}/* endpoints
func (s *Server) handleUserRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := r.URL.Path[len("/v1/vault/user/"):]

	address := path
	endpoint := ""
	for i, c := range path {
		if c == '/' {
			address = path[:i]
			endpoint = path[i+1:]
			break
		}
	}

	if address == "" {
		writeError(w, http.StatusBadRequest, "User address required")
		return
	}

	r.Header.Set("X-User-Address", address)

	switch endpoint {
	case "", "balance":
		s.vaultHandler.GetUserBalance(w, r)
	case "requests":
		s.vaultHandler.GetUserRequests(w, r)
	default:
		writeError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// Helper functions

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-User-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ============ Broadcasting service wrapper ============

// broadcastService decorates a VaultService with WebSocket fan-out and
// metrics recording for every mutating operation. Reads pass through.
type broadcastService struct {
	inner types.VaultService
	hub   *websocket.Hub
}

func newBroadcastService(inner types.VaultService, hub *websocket.Hub) *broadcastService {
	return &broadcastService{inner: inner, hub: hub}
}

func (b *broadcastService) GetPoolState() (*types.PoolStateInfo, error) {
	return b.inner.GetPoolState()
}

func (b *broadcastService) GetConfig() (*types.ConfigInfo, error) {
	return b.inner.GetConfig()
}

func (b *broadcastService) GetUserBalance(user string) (*types.UserBalance, error) {
	return b.inner.GetUserBalance(user)
}

func (b *broadcastService) GetRateHistory(fromTime, toTime int64) ([]*types.RatePoint, error) {
	return b.inner.GetRateHistory(fromTime, toTime)
}

func (b *broadcastService) GetFeeDistributions(limit int) ([]*types.FeeDistributionInfo, error) {
	return b.inner.GetFeeDistributions(limit)
}

func (b *broadcastService) EstimateDeposit(amount math.Int) (*types.DepositEstimate, error) {
	return b.inner.EstimateDeposit(amount)
}

func (b *broadcastService) EstimateMint(shares math.Int) (*types.MintEstimate, error) {
	return b.inner.EstimateMint(shares)
}

func (b *broadcastService) EstimateRedeem(shares math.Int) (*types.RedeemEstimate, error) {
	return b.inner.EstimateRedeem(shares)
}

func (b *broadcastService) GetPendingWithdrawals(limit int) ([]*types.RequestInfo, error) {
	return b.inner.GetPendingWithdrawals(limit)
}

func (b *broadcastService) GetUserRequests(user string) ([]*types.RequestInfo, error) {
	return b.inner.GetUserRequests(user)
}

func (b *broadcastService) Deposit(user, receiver string, amount math.Int) (*types.DepositResult, error) {
	result, err := b.inner.Deposit(user, receiver, amount)
	if err != nil {
		return nil, err
	}
	metrics.GetCollector().RecordDeposit("deposit", intToFloat(amount))
	b.publishPool()
	return result, nil
}

func (b *broadcastService) Mint(user, receiver string, shares math.Int) (*types.MintResult, error) {
	result, err := b.inner.Mint(user, receiver, shares)
	if err != nil {
		return nil, err
	}
	if paid, ok := math.NewIntFromString(result.AssetsPaid); ok {
		metrics.GetCollector().RecordDeposit("mint", intToFloat(paid))
	}
	b.publishPool()
	return result, nil
}

func (b *broadcastService) RequestWithdrawal(user, receiver string, shares math.Int, maxLossBps uint64, solver bool) (*types.WithdrawalResult, error) {
	result, err := b.inner.RequestWithdrawal(user, receiver, shares, maxLossBps, solver)
	if err != nil {
		return nil, err
	}
	queue := "self"
	if solver {
		queue = "solver"
	}
	metrics.GetCollector().RecordWithdrawRequest(queue)
	b.hub.BroadcastRequest(user, &websocket.RequestMessage{
		RequestID: result.RequestID,
		Owner:     result.Owner,
		Receiver:  result.Receiver,
		Shares:    result.Shares,
		ClaimTime: result.ClaimTime,
		Status:    "pending",
		Timestamp: time.Now().Unix(),
	})
	b.publishPool()
	return result, nil
}

func (b *broadcastService) ClaimWithdrawal(user string, requestID uint64) (*types.ClaimResult, error) {
	result, err := b.inner.ClaimWithdrawal(user, requestID)
	if err != nil {
		return nil, err
	}
	b.recordSettlement("claim", result)
	b.hub.BroadcastRequest(user, &websocket.RequestMessage{
		RequestID: result.RequestID,
		Owner:     user,
		Receiver:  result.Receiver,
		Status:    "claimed",
		Timestamp: result.Timestamp,
	})
	b.publishPool()
	return result, nil
}

func (b *broadcastService) CompleteWithdrawal(solver string, requestID uint64) (*types.ClaimResult, error) {
	result, err := b.inner.CompleteWithdrawal(solver, requestID)
	if err != nil {
		return nil, err
	}
	b.recordSettlement("solver", result)
	b.publishPool()
	return result, nil
}

func (b *broadcastService) UpdateRate(strategist string, newRate math.Int, newWithdrawFeeBps uint64) (*types.UpdateResult, error) {
	timer := metrics.NewTimer()
	result, err := b.inner.UpdateRate(strategist, newRate, newWithdrawFeeBps)
	if err != nil {
		return nil, err
	}
	metrics.GetCollector().RecordRateUpdate(timer.ElapsedMs())
	b.hub.UpdateRate(&websocket.RateMessage{
		Rate:              result.NewRate,
		MaxHistoricalRate: result.MaxHistoricalRate,
		WithdrawFeeBps:    result.WithdrawFeeBps,
		Timestamp:         result.Timestamp,
	})
	b.publishPool()
	return result, nil
}

// publishPool refreshes the buffered pool snapshot after a mutation
func (b *broadcastService) publishPool() {
	state, err := b.inner.GetPoolState()
	if err != nil {
		return
	}
	b.hub.UpdatePool(&websocket.PoolMessage{
		TotalShares: state.TotalShares,
		TotalAssets: state.TotalAssets,
		FeesOwed:    state.FeesOwed,
		Paused:      state.Paused,
		Timestamp:   time.Now().Unix(),
	})
}

func (b *broadcastService) recordSettlement(path string, result *types.ClaimResult) {
	if assets, ok := math.NewIntFromString(result.AssetsNet); ok {
		metrics.GetCollector().RecordWithdrawSettlement(path, intToFloat(assets), 0)
	}
}

func intToFloat(v math.Int) float64 {
	f, _ := new(big.Float).SetInt(v.BigInt()).Float64()
	return f
}
