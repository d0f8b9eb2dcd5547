package tui

import (
	"context"
	"time"

	"github.com/nsf/termbox-go"

	"paddlebattle/game"
	"paddlebattle/server"
)

const helpText = "wasd/arrows move, z/space boost, q quits"

// frameSink 只保留最新一帧，终端绘制跟不上时旧帧直接丢弃
type frameSink struct {
	frames chan *game.GameState
	halts  chan error
}

func newFrameSink() *frameSink {
	return &frameSink{frames: make(chan *game.GameState, 1), halts: make(chan error, 1)}
}

func (s *frameSink) Frame(_ server.SessionID, st *game.GameState) {
	for {
		select {
		case s.frames <- st:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

func (s *frameSink) Halted(_ server.SessionID, err error) {
	select {
	case s.halts <- err:
	default:
	}
}

func quit(ev termbox.Event) bool {
	return ev.Type == termbox.EventKey && (ev.Key == termbox.KeyCtrlC || ev.Ch == 'q')
}

// Run 驱动终端前端：键盘事件写入会话键位表，会话每出一帧就重绘。
// 会话停止后画面保留，直到按 q 退出。
func Run(ctx context.Context, surf Surface, events <-chan termbox.Event, sess *server.Session) error {
	if surf == nil {
		return ErrNoSurface
	}
	sink := newFrameSink()
	detach := sess.Attach("tui", sink)
	defer detach()
	sess.Start(ctx)

	hold := newHolder(sess.Keys(), holdWindow)
	ticker := time.NewTicker(holdWindow / 3)
	defer ticker.Stop()

	maxX, maxY := sess.Bounds()
	var current *game.GameState
	status := helpText
	redraw := func() error { return Render(surf, current, maxX, maxY, status) }
	if err := redraw(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok || quit(ev) {
				return nil
			}
			switch ev.Type {
			case termbox.EventError:
				return ev.Err
			case termbox.EventResize:
				if err := redraw(); err != nil {
					return err
				}
			}
			if k, ok := keyFor(ev); ok {
				hold.press(k, time.Now())
			}
		case now := <-ticker.C:
			hold.expire(now)
		case st := <-sink.frames:
			current = st
			if err := redraw(); err != nil {
				return err
			}
		case err := <-sink.halts:
			status = "stopped: " + err.Error() + " (q quits)"
			if err := redraw(); err != nil {
				return err
			}
		}
	}
}
