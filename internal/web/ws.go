package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"KrishiMitra/internal/i18n"
	"KrishiMitra/internal/langstore"
	"KrishiMitra/internal/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsSendBuffer = 64
)

// ErrNoClient means the client has no open socket.
var ErrNoClient = errors.New("client not connected")

// WSMessage is one outbound frame.
type WSMessage struct {
	Channel string      `json:"channel"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	Time    string      `json:"time"`
}

// InboundMessage is a frame sent by the browser. "connectivity" carries
// Online; "language" carries Language.
type InboundMessage struct {
	Type     string `json:"type"`
	Online   *bool  `json:"online,omitempty"`
	Language string `json:"language,omitempty"`
}

type wsClient struct {
	clientID string
	conn     *websocket.Conn
	send     chan []byte
}

type outbound struct {
	clientID string // empty for broadcast
	data     []byte
}

// WSHub tracks open sockets per client id.
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]map[*wsClient]bool

	register   chan *wsClient
	unregister chan *wsClient
	outbox     chan outbound
	stop       chan struct{}
	stopOnce   sync.Once

	origins   map[string]bool
	upgrader  websocket.Upgrader
	onInbound func(clientID string, msg InboundMessage)
	onConnect func(clientID string)
}

func NewWSHub(corsOrigins []string) *WSHub {
	h := &WSHub{
		clients:    make(map[string]map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		outbox:     make(chan outbound, 256),
		stop:       make(chan struct{}),
		origins:    make(map[string]bool),
	}
	for _, o := range corsOrigins {
		h.origins[strings.TrimRight(o, "/")] = true
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// OnInbound sets the handler for browser frames. Call before Run.
func (h *WSHub) OnInbound(fn func(clientID string, msg InboundMessage)) { h.onInbound = fn }

// OnConnect sets a hook that runs after a socket registers. Call before Run.
func (h *WSHub) OnConnect(fn func(clientID string)) { h.onConnect = fn }

func (h *WSHub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || h.origins["*"] || h.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// Run owns client registration and delivery until Stop.
func (h *WSHub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			set := h.clients[c.clientID]
			if set == nil {
				set = make(map[*wsClient]bool)
				h.clients[c.clientID] = set
			}
			set[c] = true
			h.mu.Unlock()
			logger.HTTP.Info().Str("client", c.clientID).Msg(i18n.T(i18n.MsgLogWsClientConnected))
			if h.onConnect != nil {
				go h.onConnect(c.clientID)
			}

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.outbox:
			h.mu.RLock()
			var targets []*wsClient
			if msg.clientID == "" {
				for _, set := range h.clients {
					for c := range set {
						targets = append(targets, c)
					}
				}
			} else {
				for c := range h.clients[msg.clientID] {
					targets = append(targets, c)
				}
			}
			h.mu.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- msg.data:
				default:
					logger.HTTP.Warn().Str("client", c.clientID).Msg("ws send buffer full, dropping connection")
					h.drop(c)
				}
			}

		case <-h.stop:
			h.mu.Lock()
			for id, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *WSHub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *WSHub) drop(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.clientID]
	if !set[c] {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.clientID)
	}
	logger.HTTP.Info().Str("client", c.clientID).Msg(i18n.T(i18n.MsgLogWsClientDisconnected))
}

// Connected reports whether clientID has at least one open socket.
func (h *WSHub) Connected(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[clientID]) > 0
}

// Broadcast sends a frame to every socket.
func (h *WSHub) Broadcast(channel, msgType string, payload interface{}) {
	data, err := encodeFrame(channel, msgType, payload)
	if err != nil {
		logger.HTTP.Error().Err(err).Str("type", msgType).Msg("ws encode failed")
		return
	}
	h.enqueue(outbound{data: data})
}

// SendTo sends a frame to every socket of clientID.
func (h *WSHub) SendTo(clientID, channel, msgType string, payload interface{}) error {
	if !h.Connected(clientID) {
		return ErrNoClient
	}
	data, err := encodeFrame(channel, msgType, payload)
	if err != nil {
		return err
	}
	h.enqueue(outbound{clientID: clientID, data: data})
	return nil
}

func (h *WSHub) enqueue(o outbound) {
	select {
	case h.outbox <- o:
	case <-h.stop:
	}
}

func encodeFrame(channel, msgType string, payload interface{}) ([]byte, error) {
	return json.Marshal(WSMessage{
		Channel: channel,
		Type:    msgType,
		Payload: payload,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleWS upgrades authenticated requests. The token comes from the
// token query parameter since browsers cannot set headers on sockets.
func (h *WSHub) HandleWS(jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := ParseToken(jwtSecret, TokenFromRequest(r))
		if err != nil {
			FailErr(w, r, ErrUnauthorized)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.HTTP.Warn().Err(err).Msg("ws upgrade failed")
			return
		}

		c := &wsClient{clientID: clientID, conn: conn, send: make(chan []byte, wsSendBuffer)}
		select {
		case h.register <- c:
		case <-h.stop:
			conn.Close()
			return
		}

		go h.writePump(c)
		h.readPump(c)
	}
}

func (h *WSHub) readPump(c *wsClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.stop:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.HTTP.Debug().Err(err).Str("client", c.clientID).Msg("ws read failed")
			}
			return
		}
		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.HTTP.Debug().Err(err).Str("client", c.clientID).Msg("ignoring malformed ws frame")
			continue
		}
		if h.onInbound != nil {
			h.onInbound(c.clientID, msg)
		}
	}
}

func (h *WSHub) writePump(c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// ClientUI returns the interaction adapter for one client. Each call sends
// a frame the browser shim turns into DOM effects.
func (h *WSHub) ClientUI(clientID string) *ClientUI {
	return &ClientUI{hub: h, clientID: clientID}
}

type ClientUI struct {
	hub      *WSHub
	clientID string
}

func (u *ClientUI) BlurFocus() error {
	return u.send("blur", nil)
}

func (u *ClientUI) PointerBurst() error {
	return u.send("pointer-burst", map[string]interface{}{
		"events": []string{"pointerdown", "pointerup", "click"},
	})
}

func (u *ClientUI) ApplyTheme(dark bool) error {
	return u.send("theme", map[string]interface{}{"dark": dark})
}

// send reports a missing socket as an unsupported UI: a client driven
// over REST alone has nothing to blur or click.
func (u *ClientUI) send(msgType string, payload interface{}) error {
	err := u.hub.SendTo(u.clientID, "ui", msgType, payload)
	if errors.Is(err, ErrNoClient) {
		return fmt.Errorf("%w: %w", langstore.ErrUIUnsupported, err)
	}
	return err
}
