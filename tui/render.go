package tui

import (
	"fmt"
	"strconv"

	"github.com/nsf/termbox-go"

	"paddlebattle/game"
)

// viewport 世界坐标到终端格子的映射；世界 y 轴向上，终端行向下
type viewport struct {
	w, h       int
	top        int
	maxX, maxY uint32
}

func (v viewport) col(x uint32) int {
	return clamp(int(uint64(x)*uint64(v.w)/uint64(v.maxX)), 0, v.w-1)
}

func (v viewport) row(y uint32) int {
	r := v.h - 1 - int(uint64(y)*uint64(v.h)/uint64(v.maxY))
	return v.top + clamp(r, 0, v.h-1)
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

// colorFor 把 #RRGGBB 折算为最接近的终端 8 色
func colorFor(hex string) termbox.Attribute {
	if len(hex) != 7 || hex[0] != '#' {
		return termbox.ColorDefault
	}
	rgb, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return termbox.ColorDefault
	}
	r, g, b := rgb>>16&0xff > 127, rgb>>8&0xff > 127, rgb&0xff > 127
	switch {
	case r && g && b:
		return termbox.ColorWhite
	case r && g:
		return termbox.ColorYellow
	case r && b:
		return termbox.ColorMagenta
	case g && b:
		return termbox.ColorCyan
	case r:
		return termbox.ColorRed
	case g:
		return termbox.ColorGreen
	case b:
		return termbox.ColorBlue
	}
	return termbox.ColorBlack
}

// Render 绘制一帧：首行双方木筏血量，中间战场，末行状态文本。
// st 为 nil 时只画状态行。未激活的实体不画。
func Render(surf Surface, st *game.GameState, maxX, maxY uint32, status string) error {
	if surf == nil {
		return ErrNoSurface
	}
	w, h := surf.Size()
	if w < 10 || h < 4 || maxX == 0 || maxY == 0 {
		return fmt.Errorf("%w: %dx%d terminal for %dx%d world", ErrNoSurface, w, h, maxX, maxY)
	}
	surf.Clear()
	v := viewport{w: w, h: h - 2, top: 1, maxX: maxX, maxY: maxY}

	if st != nil {
		drawText(surf, 0, 0, fmt.Sprintf("Left HP: %d/%d  Right HP: %d/%d  tick %d",
			st.RaftLeft.CurrHealth, st.RaftLeft.MaxHealth,
			st.RaftRight.CurrHealth, st.RaftRight.MaxHealth, st.Ticks), termbox.ColorDefault)

		for _, r := range []*game.Raft{&st.RaftLeft, &st.RaftRight} {
			if !r.Entity.IsActive {
				continue
			}
			fillRect(surf, v, r.Entity.Position, r.Width, r.Height, ' ', termbox.ColorDefault, colorFor(r.Style.Color))
			for _, f := range r.RaftFighters {
				if !f.Entity.IsActive {
					continue
				}
				fillRect(surf, v, f.Entity.Position, f.Width, f.Height, '#', colorFor(f.Style.Color), colorFor(r.Style.Color))
				label := "HP: " + strconv.FormatUint(uint64(f.CurrHealth), 10)
				drawText(surf, v.col(f.Entity.Position.X), max(v.top, v.row(f.Entity.Position.Y+f.Height)-1), label, termbox.ColorDefault)
			}
		}
		for _, p := range st.AllProjectiles() {
			if !p.Entity.IsActive {
				continue
			}
			surf.SetCell(v.col(p.Entity.Position.X), v.row(p.Entity.Position.Y), 'o', colorFor(p.Style.Color)|termbox.AttrBold, termbox.ColorDefault)
		}
	}
	if status != "" {
		drawText(surf, 0, h-1, status, termbox.ColorDefault)
	}
	return surf.Flush()
}

func fillRect(surf Surface, v viewport, pos game.Position, width, height uint32, ch rune, fg, bg termbox.Attribute) {
	x0, x1 := v.col(pos.X), v.col(pos.X+width)
	y0, y1 := v.row(pos.Y+height), v.row(pos.Y)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			surf.SetCell(x, y, ch, fg, bg)
		}
	}
}

func drawText(surf Surface, x, y int, s string, fg termbox.Attribute) {
	for _, r := range s {
		surf.SetCell(x, y, r, fg, termbox.ColorDefault)
		x++
	}
}
