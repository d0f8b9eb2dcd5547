package server

import (
	"github.com/google/uuid"

	"paddlebattle/game"
	"paddlebattle/logging"
)

// ViewerID 观众唯一标识
type ViewerID string

func newViewerID() ViewerID { return ViewerID(uuid.NewString()) }

// Viewer 一个 WebSocket 观众：既收帧，也把按键写入会话的键位表
type Viewer struct {
	ID       ViewerID
	Conn     *ClientConn
	encoding FrameEncoding
	metrics  *SessionMetrics
}

func (v *Viewer) Frame(id SessionID, s *game.GameState) {
	v.send(newStateFrame(id, s))
}

func (v *Viewer) Halted(id SessionID, reason error) {
	v.send(newHaltFrame(id, reason))
}

func (v *Viewer) send(frame any) {
	msg, err := encodeFrame(v.encoding, frame)
	if err != nil {
		logging.Log.Errorw("encode frame", "viewer", v.ID, "err", err)
		return
	}
	if !v.Conn.Enqueue(msg) && v.metrics != nil {
		v.metrics.IncFramesDropped()
	}
}
