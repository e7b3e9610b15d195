package app

import (
	"strings"

	"github.com/gookit/color"
	"github.com/hajimehoshi/ebiten/v2"
)

// FunctionKey 功能键与控制台命令的绑定
type FunctionKey struct {
	Key     ebiten.Key
	Command string
}

// FunctionKeyCommands 开发用功能键，通过控制台执行
var FunctionKeyCommands = []FunctionKey{
	{ebiten.KeyF1, "restrain"},
	{ebiten.KeyF2, "unrestrain"},
	{ebiten.KeyF3, "resumeintro"},
	{ebiten.KeyF4, "skipintro"},
	{ebiten.KeyF5, "save quick"},
	{ebiten.KeyF9, "load quick"},
}

// messageSink 接收单行提示
type messageSink interface {
	ShowMessage(text string)
}

// hudWriter 把控制台输出转成 HUD 提示（去除颜色码）
type hudWriter struct {
	hud     messageSink
	partial string
}

func (w *hudWriter) Write(p []byte) (int, error) {
	w.partial += string(p)
	for {
		i := strings.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(color.ClearCode(w.partial[:i]))
		w.partial = w.partial[i+1:]
		if line != "" {
			w.hud.ShowMessage(line)
		}
	}
	return len(p), nil
}
