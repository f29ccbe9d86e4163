package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by channel
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Inbound messages from clients
	broadcast chan []byte

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Latest snapshots, flushed on the broadcast interval
	rateBuffer *RateMessage
	poolBuffer *PoolMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Configuration
	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Update intervals
	RateInterval time.Duration // Default: 1s
	PoolInterval time.Duration // Default: 1s

	// Connection limits
	MaxClientsPerIP  int
	MaxSubscriptions int

	// Rate limiting
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration. Vault state
// moves on strategist updates, not ticks, so the intervals are coarse.
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		RateInterval:     time.Second,
		PoolInterval:     time.Second,
		MaxClientsPerIP:  10,
		MaxSubscriptions: 20,
		MessageRateLimit: 50,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:     make(map[*Client]bool),
		channels:    make(map[string]map[*Client]bool),
		broadcast:   make(chan []byte, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan *SubscriptionRequest, 256),
		unsubscribe: make(chan *SubscriptionRequest, 256),
		config:      config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	rateTicker := time.NewTicker(h.config.RateInterval)
	poolTicker := time.NewTicker(h.config.PoolInterval)

	defer rateTicker.Stop()
	defer poolTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-rateTicker.C:
			h.broadcastRate()

		case <-poolTicker.C:
			h.broadcastPool()
		}
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		// Remove from all channels
		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		close(client.send)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true

	// Send subscription confirmation
	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	// Send unsubscription confirmation
	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// broadcastMessage sends a message to all clients
func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client buffer is full, skip
		}
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Make a copy of clients to avoid holding lock during send
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}
}

// ============ Channel-specific broadcasts ============

// UpdateRate replaces the buffered redemption rate snapshot
func (h *Hub) UpdateRate(rate *RateMessage) {
	h.mu.Lock()
	h.rateBuffer = rate
	h.mu.Unlock()
}

// UpdatePool replaces the buffered pool state snapshot
func (h *Hub) UpdatePool(pool *PoolMessage) {
	h.mu.Lock()
	h.poolBuffer = pool
	h.mu.Unlock()
}

// broadcastRate flushes the buffered rate snapshot to subscribers
func (h *Hub) broadcastRate() {
	h.mu.RLock()
	rate := h.rateBuffer
	h.mu.RUnlock()

	if rate == nil {
		return
	}
	msg := &WSMessage{
		Type:    "rate",
		Channel: "rate",
		Data:    rate,
	}
	h.BroadcastToChannel("rate", msg)
}

// broadcastPool flushes the buffered pool snapshot to subscribers
func (h *Hub) broadcastPool() {
	h.mu.RLock()
	pool := h.poolBuffer
	h.mu.RUnlock()

	if pool == nil {
		return
	}
	msg := &WSMessage{
		Type:    "pool",
		Channel: "pool",
		Data:    pool,
	}
	h.BroadcastToChannel("pool", msg)
}

// BroadcastFeeDistribution broadcasts a fee distribution event
func (h *Hub) BroadcastFeeDistribution(fee *FeeMessage) {
	msg := &WSMessage{
		Type:    "fee_distribution",
		Channel: "fees",
		Data:    fee,
	}
	h.BroadcastToChannel("fees", msg)
}

// BroadcastRequest broadcasts a withdrawal request update to its owner
func (h *Hub) BroadcastRequest(userID string, req *RequestMessage) {
	channel := "requests:" + userID
	msg := &WSMessage{
		Type:    "request",
		Channel: channel,
		Data:    req,
	}
	h.BroadcastToChannel(channel, msg)
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// RateMessage represents a redemption rate update
type RateMessage struct {
	Rate              string `json:"rate"`
	MaxHistoricalRate string `json:"max_historical_rate"`
	WithdrawFeeBps    uint64 `json:"withdraw_fee_bps"`
	Timestamp         int64  `json:"timestamp"`
}

// PoolMessage represents a pool state snapshot
type PoolMessage struct {
	TotalShares string `json:"total_shares"`
	TotalAssets string `json:"total_assets"`
	FeesOwed    string `json:"fees_owed"`
	Paused      bool   `json:"paused"`
	Timestamp   int64  `json:"timestamp"`
}

// FeeMessage represents a fee distribution event
type FeeMessage struct {
	RecordID         string `json:"record_id"`
	StrategistShares string `json:"strategist_shares"`
	PlatformShares   string `json:"platform_shares"`
	Rate             string `json:"rate"`
	Timestamp        int64  `json:"timestamp"`
}

// RequestMessage represents a withdrawal request lifecycle update
type RequestMessage struct {
	RequestID uint64 `json:"request_id"`
	Owner     string `json:"owner"`
	Receiver  string `json:"receiver"`
	Shares    string `json:"shares"`
	ClaimTime int64  `json:"claim_time"`
	Status    string `json:"status"` // "pending", "claimed", "completed"
	Timestamp int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	userID := r.URL.Query().Get("user_id")
	ip := getClientIP(r)

	client := NewClient(h, conn, clientID, userID, ip)

	h.register <- client

	go client.writePump()
	go client.readPump()
}
