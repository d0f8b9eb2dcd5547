package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"paddlebattle/game"
)

// FrameEncoding 出站帧的编码方式
type FrameEncoding int

const (
	FrameJSON FrameEncoding = iota
	FrameMsgpack
)

func (e FrameEncoding) String() string {
	if e == FrameMsgpack {
		return "msgpack"
	}
	return "json"
}

func ParseFrameEncoding(s string) (FrameEncoding, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FrameJSON, nil
	case "msgpack":
		return FrameMsgpack, nil
	}
	return FrameJSON, fmt.Errorf("unknown frame encoding %q", s)
}

// KeyMessage 入站键盘事件（WebSocket 文本消息）
// 示例：{"type":"keydown","key":"ArrowUp"}
type KeyMessage struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// StateFrame 广播给观众的一帧状态
type StateFrame struct {
	Type    string          `json:"type" msgpack:"type"`
	Session string          `json:"session" msgpack:"session"`
	Tick    uint32          `json:"tick" msgpack:"tick"`
	State   *game.GameState `json:"state" msgpack:"state"`
}

// HaltFrame 会话停止通知
type HaltFrame struct {
	Type    string `json:"type" msgpack:"type"`
	Session string `json:"session" msgpack:"session"`
	Reason  string `json:"reason" msgpack:"reason"`
}

func newStateFrame(id SessionID, s *game.GameState) StateFrame {
	return StateFrame{Type: "state", Session: string(id), Tick: s.Ticks, State: s}
}

func newHaltFrame(id SessionID, err error) HaltFrame {
	return HaltFrame{Type: "halted", Session: string(id), Reason: err.Error()}
}

// outbound 一条待发送的 WebSocket 消息
type outbound struct {
	kind int
	data []byte
}

func encodeFrame(enc FrameEncoding, v any) (outbound, error) {
	if enc == FrameMsgpack {
		b, err := msgpack.Marshal(v)
		if err != nil {
			return outbound{}, fmt.Errorf("msgpack frame: %w", err)
		}
		return outbound{kind: websocket.BinaryMessage, data: b}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return outbound{}, fmt.Errorf("json frame: %w", err)
	}
	return outbound{kind: websocket.TextMessage, data: b}, nil
}
