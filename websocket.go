package wyvernexchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// WebSocket endpoint
	DefaultWSEndpoint = "wss://stream.wyvernexchange.io"

	// Heartbeat interval
	HeartbeatInterval = 30 * time.Second

	// Reconnect settings
	DefaultReconnectInterval    = 5 * time.Second
	DefaultMaxReconnectAttempts = 10
)

// WebSocket action types
const (
	ActionHeartbeat   = "HEARTBEAT"
	ActionSubscribe   = "SUBSCRIBE"
	ActionUnsubscribe = "UNSUBSCRIBE"
)

// WebSocket channel types
const (
	ChannelOrderPosted    = "order.posted"
	ChannelOrderMatched   = "order.matched"
	ChannelOrderCancelled = "order.cancelled"
)

// SubscribeCollectionMessage subscribes to events for every order
// targeting one collection contract.
type SubscribeCollectionMessage struct {
	Action     string `json:"action"`
	Channel    string `json:"channel"`
	Collection string `json:"collection"`
	ChainID    int    `json:"chainId"`
}

// SubscribeMakerMessage subscribes to events for every order made by
// one account.
type SubscribeMakerMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
	Maker   string `json:"maker"`
	ChainID int    `json:"chainId"`
}

// HeartbeatMessage represents a heartbeat message
type HeartbeatMessage struct {
	Action string `json:"action"`
}

// OrderEvent is an orderbook event delivered over the stream. Order
// is present for posted and cancelled events; Match for matched
// events.
type OrderEvent struct {
	Channel   string      `json:"channel"`
	Order     *OrderJSON  `json:"order,omitempty"`
	Match     *MatchEvent `json:"match,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// MatchEvent describes a settled buy/sell pair.
type MatchEvent struct {
	BuyHash  string `json:"buyHash"`
	SellHash string `json:"sellHash"`
	TxHash   string `json:"txHash"`
	Price    string `json:"price"`
	Maker    string `json:"maker"`
	Taker    string `json:"taker"`
}

// ParseOrderEvent decodes a raw stream payload into an OrderEvent.
func ParseOrderEvent(data []byte) (*OrderEvent, error) {
	var event OrderEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to decode stream event: %w", err)
	}
	return &event, nil
}

// WSEventHandler is a callback function for handling WebSocket events
type WSEventHandler func(messageType int, data []byte)

// WSErrorHandler is a callback function for handling WebSocket errors
type WSErrorHandler func(err error)

// WSConfig holds configuration for the WebSocket client
type WSConfig struct {
	Endpoint             string
	APIKey               string
	ChainID              ChainID
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	OnMessage            WSEventHandler
	OnError              WSErrorHandler
	OnConnect            func()
	OnDisconnect         func()
}

// WSClient is the WebSocket client for the orderbook event stream
type WSClient struct {
	config           WSConfig
	conn             *websocket.Conn
	mu               sync.RWMutex
	isConnected      bool
	subscriptions    map[string]interface{} // Track active subscriptions for reconnection
	subMu            sync.RWMutex
	ctx              context.Context
	cancel           context.CancelFunc
	heartbeatTicker  *time.Ticker
	reconnectAttempt int
	done             chan struct{}
}

// NewWSClient creates a new WebSocket client
func NewWSClient(config WSConfig) *WSClient {
	if config.Endpoint == "" {
		config.Endpoint = DefaultWSEndpoint
	}
	if config.ReconnectInterval == 0 {
		config.ReconnectInterval = DefaultReconnectInterval
	}
	if config.MaxReconnectAttempts == 0 {
		config.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}

	return &WSClient{
		config:        config,
		subscriptions: make(map[string]interface{}),
		done:          make(chan struct{}),
	}
}

// Connect establishes a WebSocket connection
func (ws *WSClient) Connect(ctx context.Context) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.isConnected {
		return nil
	}

	ws.ctx, ws.cancel = context.WithCancel(ctx)

	u, err := url.Parse(ws.config.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse WebSocket endpoint: %w", err)
	}
	q := u.Query()
	if ws.config.APIKey != "" {
		q.Set("apikey", ws.config.APIKey)
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ws.ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to WebSocket: %w", err)
	}

	ws.conn = conn
	ws.isConnected = true
	ws.reconnectAttempt = 0

	ws.startHeartbeat()

	go ws.readLoop()

	if ws.config.OnConnect != nil {
		go ws.config.OnConnect()
	}

	return nil
}

// Disconnect closes the WebSocket connection
func (ws *WSClient) Disconnect() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	return ws.disconnect()
}

// disconnect is the internal disconnect method (must be called with lock held)
func (ws *WSClient) disconnect() error {
	if !ws.isConnected {
		return nil
	}

	ws.isConnected = false

	if ws.cancel != nil {
		ws.cancel()
	}

	if ws.heartbeatTicker != nil {
		ws.heartbeatTicker.Stop()
	}

	var err error
	if ws.conn != nil {
		err = ws.conn.Close()
		ws.conn = nil
	}

	if ws.config.OnDisconnect != nil {
		go ws.config.OnDisconnect()
	}

	return err
}

// IsConnected returns the current connection status
func (ws *WSClient) IsConnected() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.isConnected
}

// SubscribeCollection subscribes to a channel for one collection
func (ws *WSClient) SubscribeCollection(channel, collection string) error {
	msg := SubscribeCollectionMessage{
		Action:     ActionSubscribe,
		Channel:    channel,
		Collection: normalizeAddress(collection),
		ChainID:    int(ws.config.ChainID),
	}

	if err := ws.sendMessage(msg); err != nil {
		return err
	}

	ws.subMu.Lock()
	key := fmt.Sprintf("collection:%s:%s", channel, msg.Collection)
	ws.subscriptions[key] = msg
	ws.subMu.Unlock()

	return nil
}

// UnsubscribeCollection unsubscribes from a collection channel
func (ws *WSClient) UnsubscribeCollection(channel, collection string) error {
	msg := SubscribeCollectionMessage{
		Action:     ActionUnsubscribe,
		Channel:    channel,
		Collection: normalizeAddress(collection),
		ChainID:    int(ws.config.ChainID),
	}

	if err := ws.sendMessage(msg); err != nil {
		return err
	}

	ws.subMu.Lock()
	key := fmt.Sprintf("collection:%s:%s", channel, msg.Collection)
	delete(ws.subscriptions, key)
	ws.subMu.Unlock()

	return nil
}

// SubscribeMaker subscribes to a channel for one maker account
func (ws *WSClient) SubscribeMaker(channel, maker string) error {
	msg := SubscribeMakerMessage{
		Action:  ActionSubscribe,
		Channel: channel,
		Maker:   normalizeAddress(maker),
		ChainID: int(ws.config.ChainID),
	}

	if err := ws.sendMessage(msg); err != nil {
		return err
	}

	ws.subMu.Lock()
	key := fmt.Sprintf("maker:%s:%s", channel, msg.Maker)
	ws.subscriptions[key] = msg
	ws.subMu.Unlock()

	return nil
}

// UnsubscribeMaker unsubscribes from a maker channel
func (ws *WSClient) UnsubscribeMaker(channel, maker string) error {
	msg := SubscribeMakerMessage{
		Action:  ActionUnsubscribe,
		Channel: channel,
		Maker:   normalizeAddress(maker),
		ChainID: int(ws.config.ChainID),
	}

	if err := ws.sendMessage(msg); err != nil {
		return err
	}

	ws.subMu.Lock()
	key := fmt.Sprintf("maker:%s:%s", channel, msg.Maker)
	delete(ws.subscriptions, key)
	ws.subMu.Unlock()

	return nil
}

// SubscribeCollectionListings subscribes to new listings for a collection
func (ws *WSClient) SubscribeCollectionListings(collection string) error {
	return ws.SubscribeCollection(ChannelOrderPosted, collection)
}

// SubscribeCollectionSales subscribes to settled matches for a collection
func (ws *WSClient) SubscribeCollectionSales(collection string) error {
	return ws.SubscribeCollection(ChannelOrderMatched, collection)
}

// SubscribeMakerOrders subscribes to all order events for a maker
func (ws *WSClient) SubscribeMakerOrders(maker string) error {
	if err := ws.SubscribeMaker(ChannelOrderPosted, maker); err != nil {
		return err
	}
	if err := ws.SubscribeMaker(ChannelOrderMatched, maker); err != nil {
		return err
	}
	return ws.SubscribeMaker(ChannelOrderCancelled, maker)
}

// sendMessage sends a message over the WebSocket connection
func (ws *WSClient) sendMessage(msg interface{}) error {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	if !ws.isConnected || ws.conn == nil {
		return fmt.Errorf("WebSocket not connected")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := ws.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// startHeartbeat starts the heartbeat ticker
func (ws *WSClient) startHeartbeat() {
	ws.heartbeatTicker = time.NewTicker(HeartbeatInterval)

	go func() {
		for {
			select {
			case <-ws.heartbeatTicker.C:
				if err := ws.sendHeartbeat(); err != nil {
					if ws.config.OnError != nil {
						ws.config.OnError(fmt.Errorf("heartbeat failed: %w", err))
					}
				}
			case <-ws.ctx.Done():
				return
			}
		}
	}()
}

// sendHeartbeat sends a heartbeat message
func (ws *WSClient) sendHeartbeat() error {
	return ws.sendMessage(HeartbeatMessage{Action: ActionHeartbeat})
}

// readLoop continuously reads messages from the WebSocket
func (ws *WSClient) readLoop() {
	for {
		select {
		case <-ws.ctx.Done():
			return
		default:
			ws.mu.RLock()
			conn := ws.conn
			ws.mu.RUnlock()

			if conn == nil {
				return
			}

			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					ws.handleDisconnect()
					return
				}
				if ws.config.OnError != nil {
					ws.config.OnError(fmt.Errorf("read error: %w", err))
				}
				ws.handleDisconnect()
				return
			}

			if ws.config.OnMessage != nil {
				ws.config.OnMessage(messageType, data)
			}
		}
	}
}

// handleDisconnect handles disconnection and attempts reconnection
func (ws *WSClient) handleDisconnect() {
	ws.mu.Lock()
	wasConnected := ws.isConnected
	ws.isConnected = false
	if ws.heartbeatTicker != nil {
		ws.heartbeatTicker.Stop()
	}
	ws.mu.Unlock()

	if wasConnected && ws.config.OnDisconnect != nil {
		ws.config.OnDisconnect()
	}

	go ws.attemptReconnect()
}

// attemptReconnect attempts to reconnect to the WebSocket
func (ws *WSClient) attemptReconnect() {
	for ws.reconnectAttempt < ws.config.MaxReconnectAttempts {
		ws.reconnectAttempt++

		select {
		case <-ws.ctx.Done():
			return
		case <-time.After(ws.config.ReconnectInterval):
		}

		ctx := context.Background()
		if err := ws.Connect(ctx); err != nil {
			if ws.config.OnError != nil {
				ws.config.OnError(fmt.Errorf("reconnect attempt %d failed: %w", ws.reconnectAttempt, err))
			}
			continue
		}

		ws.resubscribe()
		return
	}

	if ws.config.OnError != nil {
		ws.config.OnError(fmt.Errorf("max reconnect attempts (%d) reached", ws.config.MaxReconnectAttempts))
	}
}

// resubscribe resubscribes to all tracked subscriptions
func (ws *WSClient) resubscribe() {
	ws.subMu.RLock()
	defer ws.subMu.RUnlock()

	for _, msg := range ws.subscriptions {
		if err := ws.sendMessage(msg); err != nil {
			if ws.config.OnError != nil {
				ws.config.OnError(fmt.Errorf("resubscribe failed: %w", err))
			}
		}
	}
}

// GetSubscriptions returns a list of current subscriptions
func (ws *WSClient) GetSubscriptions() []string {
	ws.subMu.RLock()
	defer ws.subMu.RUnlock()

	subs := make([]string, 0, len(ws.subscriptions))
	for key := range ws.subscriptions {
		subs = append(subs, key)
	}
	return subs
}
