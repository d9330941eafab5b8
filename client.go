/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. The engine queues outbound messages
// on send; writePump is the only writer to conn.
type Client struct {
	cfg    *Config
	conn   *websocket.Conn
	send   chan any
	closed chan struct{}
	once   sync.Once
}

func newClient(cfg *Config, conn *websocket.Conn) *Client {
	return &Client{
		cfg:    cfg,
		conn:   conn,
		send:   make(chan any, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Send queues msg without blocking. It reports false once the connection
// is closing or its buffer is full.
func (c *Client) Send(msg any) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.closed)
	})
}

func (c *Client) readPump(engine *Engine, connID string) {
	defer func() {
		engine.Disconnect(connID)
		c.shutdown()
	}()

	c.conn.SetReadLimit(int64(c.cfg.readLimit))
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logf(c.cfg, "SERVE: Connection %s read error: %v", connID, err)
			}
			return
		}

		if kind != websocket.TextMessage {
			continue
		}

		engine.Receive(connID, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.shutdown()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown()
				return
			}
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func serveWS(ctx context.Context, cfg *Config, engine *Engine) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "SERVE: Websocket upgrade from %s failed: %v", realIP(r), err)
			return
		}

		client := newClient(cfg, conn)
		connID := engine.Connect(client)

		logf(cfg, "SERVE: Websocket %s opened by %s", connID, realIP(r))

		go func() {
			select {
			case <-ctx.Done():
				client.shutdown()
			case <-client.closed:
			}
		}()

		go client.writePump()
		client.readPump(engine, connID)
	}
}
