package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Server owns the hub and the HTTP listener for standalone deployments.
// When the gateway embeds the hub in its own mux it only uses the hub
// accessor and the Broadcast wrappers.
type Server struct {
	hub        *Hub
	httpServer *http.Server
	config     *ServerConfig

	connections      map[string]*Client
	connectionsMu    sync.RWMutex
	connectionsPerIP map[string]int
	ipMu             sync.RWMutex

	totalConnections  atomic.Int64
	activeConnections atomic.Int64

	shutdownCh chan struct{}
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	AllowedOrigins []string
	MaxConnPerIP   int

	TLSCertFile string
	TLSKeyFile  string

	HubConfig *HubConfig
}

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		AllowedOrigins: []string{"*"},
		MaxConnPerIP:   10,
		HubConfig:      DefaultHubConfig(),
	}
}

func NewServer(config *ServerConfig) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	return &Server{
		hub:              NewHub(config.HubConfig),
		config:           config,
		connections:      make(map[string]*Client),
		connectionsPerIP: make(map[string]int),
		shutdownCh:       make(chan struct{}),
	}
}

// Start runs the hub and serves /ws, /health and /stats until Stop.
func (s *Server) Start() error {
	go s.hub.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	log.Printf("websocket server listening on %s", addr)

	if s.config.TLSCertFile != "" && s.config.TLSKeyFile != "" {
		return s.httpServer.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	close(s.shutdownCh)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := getClientIP(r)
	if !s.withinIPLimit(ip) {
		http.Error(w, "too many connections from this IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	// user_id here is only a hint; private channels still require an
	// auth frame naming the same address.
	client := NewClient(s.hub, conn, uuid.NewString(), r.URL.Query().Get("user_id"), ip)
	s.registerConnection(client)

	go client.writePump()
	go client.readPump()

	s.totalConnections.Add(1)
	s.activeConnections.Add(1)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"total_connections":  s.totalConnections.Load(),
		"active_connections": s.activeConnections.Load(),
		"channels":           s.hub.GetChannelCount(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stats)
}

func (s *Server) registerConnection(client *Client) {
	s.connectionsMu.Lock()
	s.connections[client.GetID()] = client
	s.connectionsMu.Unlock()

	s.ipMu.Lock()
	s.connectionsPerIP[client.GetIP()]++
	s.ipMu.Unlock()

	s.hub.register <- client
}

// nolint:unused // the hub owns teardown; kept for symmetry with register
func (s *Server) unregisterConnection(client *Client) {
	s.connectionsMu.Lock()
	delete(s.connections, client.GetID())
	s.connectionsMu.Unlock()

	s.ipMu.Lock()
	s.connectionsPerIP[client.GetIP()]--
	if s.connectionsPerIP[client.GetIP()] <= 0 {
		delete(s.connectionsPerIP, client.GetIP())
	}
	s.ipMu.Unlock()

	s.activeConnections.Add(-1)
}

func (s *Server) withinIPLimit(ip string) bool {
	s.ipMu.RLock()
	defer s.ipMu.RUnlock()
	return s.connectionsPerIP[ip] < s.config.MaxConnPerIP
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

func (s *Server) GetConnection(clientID string) *Client {
	s.connectionsMu.RLock()
	defer s.connectionsMu.RUnlock()
	return s.connections[clientID]
}

func (s *Server) GetActiveConnections() int64 {
	return s.activeConnections.Load()
}

// BroadcastRate buffers a redemption rate update for the next flush
func (s *Server) BroadcastRate(rate *RateMessage) {
	s.hub.UpdateRate(rate)
}

// BroadcastPool buffers a pool state snapshot for the next flush
func (s *Server) BroadcastPool(pool *PoolMessage) {
	s.hub.UpdatePool(pool)
}

// BroadcastFeeDistribution broadcasts a fee distribution event
func (s *Server) BroadcastFeeDistribution(fee *FeeMessage) {
	s.hub.BroadcastFeeDistribution(fee)
}

// BroadcastRequest broadcasts a withdrawal request update to its owner
func (s *Server) BroadcastRequest(userID string, req *RequestMessage) {
	s.hub.BroadcastRequest(userID, req)
}

// getClientIP prefers proxy headers over the raw remote address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
