package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"paddlebattle/input"
	"paddlebattle/logging"
)

const (
	writeWait  = 5 * time.Second
	readWait   = 60 * time.Second
	sendBuffer = 64
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws        *websocket.Conn
	send      chan outbound
	closed    chan struct{}
	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:     ws,
		send:   make(chan outbound, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Enqueue 非阻塞入队；队列满或连接已关闭时丢弃并返回 false
func (c *ClientConn) Enqueue(m outbound) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

// Close 关闭底层连接并结束写协程
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.Close()
	for {
		select {
		case <-c.closed:
			return
		case m := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(m.kind, m.data); err != nil {
				return
			}
		}
	}
}

// readPump 读取键盘事件写入会话键位表；退出时注销观众
func (c *ClientConn) readPump(keys *input.KeyState, detach func()) {
	defer c.Close()
	defer detach()
	c.ws.SetReadLimit(1 << 16)
	_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(readWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readWait))
		var km KeyMessage
		if err := json.Unmarshal(payload, &km); err != nil {
			continue
		}
		applyKey(keys, km)
	}
}

// applyKey 不在白名单内的键被忽略
func applyKey(keys *input.KeyState, km KeyMessage) bool {
	k := input.Key(km.Key)
	switch strings.ToLower(km.Type) {
	case "keydown":
		return keys.Down(k)
	case "keyup":
		return keys.Up(k)
	}
	return false
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源
		return true
	},
}

// HandleWS WebSocket 接入：?session=<id>，缺省连到默认会话。
// 第一个观众接入时会话开始运行。
func (m *SessionManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	sess, err := m.Lookup(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Log.Warnw("upgrade failed", "err", err)
		return
	}

	client := NewClientConn(ws)
	v := &Viewer{ID: newViewerID(), Conn: client, encoding: sess.Encoding(), metrics: sess.Metrics()}
	detach := sess.Attach(string(v.ID), v)
	logging.Log.Infow("viewer joined", "session", sess.ID, "viewer", v.ID)

	go client.writePump()
	go client.readPump(sess.Keys(), func() {
		detach()
		logging.Log.Infow("viewer left", "session", sess.ID, "viewer", v.ID)
	})
	m.Start(sess)
}
