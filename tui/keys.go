package tui

import (
	"time"

	"github.com/nsf/termbox-go"

	"paddlebattle/input"
)

// 终端只有按下事件，按住的键靠重复事件续期
const holdWindow = 150 * time.Millisecond

// keyFor 把 termbox 事件映射为白名单键；ok=false 表示忽略
func keyFor(ev termbox.Event) (input.Key, bool) {
	if ev.Type != termbox.EventKey {
		return "", false
	}
	switch ev.Key {
	case termbox.KeyArrowUp:
		return input.KeyArrowUp, true
	case termbox.KeyArrowDown:
		return input.KeyArrowDown, true
	case termbox.KeyArrowLeft:
		return input.KeyArrowLeft, true
	case termbox.KeyArrowRight:
		return input.KeyArrowRight, true
	case termbox.KeySpace:
		return input.KeySpace, true
	case termbox.KeyEsc:
		return input.KeyEscape, true
	}
	if ev.Ch == 0 {
		return "", false
	}
	k := input.Key(string(ev.Ch))
	return k, input.Known(k)
}

// holder 按下即记录，超过 holdWindow 没有续期就松开
type holder struct {
	keys   *input.KeyState
	window time.Duration
	until  map[input.Key]time.Time
}

func newHolder(keys *input.KeyState, window time.Duration) *holder {
	return &holder{keys: keys, window: window, until: make(map[input.Key]time.Time)}
}

func (h *holder) press(k input.Key, now time.Time) {
	if h.keys.Down(k) {
		h.until[k] = now.Add(h.window)
	}
}

func (h *holder) expire(now time.Time) {
	for k, t := range h.until {
		if !now.Before(t) {
			h.keys.Up(k)
			delete(h.until, k)
		}
	}
}
