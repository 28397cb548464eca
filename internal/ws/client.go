package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout     = 10 * time.Second
	wsReadLimit      = 4096
	clientSendBuffer = 256
	maxConnLifetime  = 4 * time.Hour
	pingInterval     = 30 * time.Second
	pingTimeout      = 10 * time.Second
	maxMissedPongs   = int32(2)
)

// Client wraps a single WebSocket connection managed by the Hub.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	log         *logrus.Entry
	OrgID       string
	closeOnce   sync.Once
	connectedAt time.Time
	filter      atomic.Pointer[eventFilter]
}

// wants reports whether the client's subscription covers eventType.
// Safe to call from the hub goroutine while ReadPump updates the filter.
func (c *Client) wants(eventType string) bool {
	f := c.filter.Load()

	return f == nil || f.accepts(eventType)
}

// subscribe replaces the client's event-type filter.
func (c *Client) subscribe(types []string) {
	f := newEventFilter(types)
	if f == nil {
		c.filter.Store(nil)
		return
	}
	c.filter.Store(&f)
}

// closeSend safely closes the send channel exactly once.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// NewClient creates a new Client subscribed to orgID's events.
func NewClient(hub *Hub, conn *websocket.Conn, orgID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, clientSendBuffer),
		log:         hub.log.WithField("org_id", orgID),
		OrgID:       orgID,
		connectedAt: time.Now(),
	}
}

// ReadPump reads client messages until the connection closes, then
// unregisters the client. Subscribe messages may arrive at any time and
// replace the client's filter.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	c.conn.SetReadLimit(wsReadLimit)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.log.WithField("status", status).Debug("ws.closed_by_peer")
			}
			return
		}

		c.handleMessage(ctx, data)
	}
}

// ping reports whether the peer is still alive: it returns false once
// maxMissedPongs consecutive pings have gone unanswered.
func (c *Client) ping(ctx context.Context, missed *atomic.Int32) bool {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.conn.Ping(pingCtx); err != nil {
		if n := missed.Add(1); n >= maxMissedPongs {
			c.log.WithField("missed", n).Debug("ws.pong_timeout")
			return false
		}
		return true
	}

	missed.Store(0)
	return true
}

// handleMessage applies a subscribe request: it installs the event filter
// and replays what the client missed, or asks it to reset when the buffer
// no longer reaches back far enough.
func (c *Client) handleMessage(_ context.Context, data []byte) {
	var msg SubscribeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.WithError(err).Debug("ws.bad_message")
		return
	}

	if msg.Type != "subscribe" {
		return
	}

	c.subscribe(msg.Events)
	c.log.WithFields(logrus.Fields{
		"last_event_id": msg.LastEventID,
		"events":        msg.Events,
	}).Debug("ws.subscribed")

	if c.hub.ReplayEvents(c, msg.LastEventID) {
		return
	}

	reset, err := json.Marshal(ResetMsg{
		Type:   "reset",
		Reason: "requested events no longer available, perform full refresh",
	})
	if err != nil {
		return
	}
	select {
	case c.send <- reset:
	default:
	}
}

// write sends one text frame within writeTimeout.
func (c *Client) write(ctx context.Context, msg []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	return c.conn.Write(writeCtx, websocket.MessageText, msg)
}

// WritePump delivers queued events to the peer until the send channel is
// closed, the peer stops answering pings, or maxConnLifetime elapses.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	lifetime := time.NewTimer(time.Until(c.connectedAt.Add(maxConnLifetime)))
	defer lifetime.Stop()

	pings := time.NewTicker(pingInterval)
	defer pings.Stop()

	var missed atomic.Int32

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.write(ctx, msg); err != nil {
				c.log.WithError(err).Debug("ws.write_failed")
				return
			}

		case <-pings.C:
			if !c.ping(ctx, &missed) {
				return
			}

		case <-lifetime.C:
			c.log.Info("ws.lifetime_exceeded")
			c.conn.Close(websocket.StatusNormalClosure, "max connection lifetime exceeded") //nolint:errcheck // best-effort
			return
		}
	}
}
