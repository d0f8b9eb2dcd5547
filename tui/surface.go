package tui

import (
	"errors"
	"fmt"

	"github.com/nsf/termbox-go"
)

// ErrNoSurface 没有可绘制的终端；属于调用顺序错误，不可恢复
var ErrNoSurface = errors.New("no drawable surface")

// Surface 绘制目标，termbox 的最小子集
type Surface interface {
	Size() (int, int)
	Clear()
	SetCell(x, y int, ch rune, fg, bg termbox.Attribute)
	Flush() error
}

type termboxSurface struct{}

func (termboxSurface) Size() (int, int) { return termbox.Size() }
func (termboxSurface) Clear()           { _ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault) }
func (termboxSurface) Flush() error     { return termbox.Flush() }

func (termboxSurface) SetCell(x, y int, ch rune, fg, bg termbox.Attribute) {
	termbox.SetCell(x, y, ch, fg, bg)
}

// Open 初始化终端，返回绘制面、键盘事件流与关闭函数
func Open() (Surface, <-chan termbox.Event, func(), error) {
	if err := termbox.Init(); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrNoSurface, err)
	}
	termbox.SetInputMode(termbox.InputEsc)

	events := make(chan termbox.Event, 16)
	stop := make(chan struct{})
	go func() {
		defer close(events)
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
	}()

	closeFn := func() {
		close(stop)
		termbox.Interrupt()
		termbox.Close()
	}
	return termboxSurface{}, events, closeFn, nil
}
