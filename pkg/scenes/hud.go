package scenes

import (
	"fmt"
	"image/color"

	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/mattn/go-runewidth"
)

const (
	// HUD 布局
	subtitleMaxCells   = 56 // 每行字幕的最大显示宽度（半角字符单元）
	subtitleBottomGap  = 90
	debugCharWidth     = 6
	debugLineHeight    = 16
	promptBarWidth     = 240
	promptBarHeight    = 12
	messageDurationSec = 3.0
	maxMessages        = 4
)

var (
	subtitleBG  = color.RGBA{0, 0, 0, 160}
	promptBG    = color.RGBA{40, 40, 40, 200}
	promptFill  = color.RGBA{220, 120, 40, 255}
	promptHotFG = color.RGBA{255, 60, 30, 255}
)

type hudMessage struct {
	text      string
	remaining float64
}

// HUD 叠加层：字幕、挣脱提示与进度条、目标、短暂提示消息
// 实现 systems.Overlay
type HUD struct {
	strings *game.NarrationStrings

	subtitle      []string
	subtitleShown bool

	promptShown bool
	progress    float64

	objective string
	messages  []hudMessage
}

// NewHUD 创建 HUD
func NewHUD(strings *game.NarrationStrings) *HUD {
	return &HUD{strings: strings}
}

// ShowSubtitle 显示字幕（按显示宽度折行）
func (h *HUD) ShowSubtitle(text string) {
	h.subtitle = utils.WrapByWidth(text, subtitleMaxCells)
	h.subtitleShown = true
}

// HideSubtitle 隐藏字幕
func (h *HUD) HideSubtitle() {
	h.subtitle = nil
	h.subtitleShown = false
}

// SubtitleVisible 字幕是否可见
func (h *HUD) SubtitleVisible() bool {
	return h.subtitleShown
}

// SubtitleLines 当前字幕行
func (h *HUD) SubtitleLines() []string {
	return h.subtitle
}

// ShowBreakFreePrompt 显示挣脱提示
func (h *HUD) ShowBreakFreePrompt() {
	h.promptShown = true
	h.progress = 0
}

// SetBreakFreeProgress 更新进度条 [0,100]
func (h *HUD) SetBreakFreeProgress(progress float64) {
	h.progress = utils.Clamp(progress, 0, 100)
}

// HideBreakFreePrompt 隐藏挣脱提示
func (h *HUD) HideBreakFreePrompt() {
	h.promptShown = false
}

// PromptVisible 挣脱提示是否可见
func (h *HUD) PromptVisible() bool {
	return h.promptShown
}

// Progress 进度条数值
func (h *HUD) Progress() float64 {
	return h.progress
}

// SetObjective 设置当前目标
func (h *HUD) SetObjective(text string) {
	h.objective = text
}

// Objective 当前目标
func (h *HUD) Objective() string {
	return h.objective
}

// ShowMessage 显示一条短暂提示
func (h *HUD) ShowMessage(text string) {
	h.messages = append(h.messages, hudMessage{text: text, remaining: messageDurationSec})
	if len(h.messages) > maxMessages {
		h.messages = h.messages[len(h.messages)-maxMessages:]
	}
}

// Messages 当前可见的提示
func (h *HUD) Messages() []string {
	out := make([]string, len(h.messages))
	for i, m := range h.messages {
		out[i] = m.text
	}
	return out
}

// Update 提示消息计时（PhaseUI）
func (h *HUD) Update(dt float64) {
	kept := h.messages[:0]
	for _, m := range h.messages {
		m.remaining -= dt
		if m.remaining > 0 {
			kept = append(kept, m)
		}
	}
	h.messages = kept
}

// Draw 绘制 HUD
func (h *HUD) Draw(screen *ebiten.Image) {
	w, hgt := screen.Bounds().Dx(), screen.Bounds().Dy()

	if h.objective != "" {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("> %s", h.objective), 12, 10)
	}
	for i, m := range h.messages {
		ebitenutil.DebugPrintAt(screen, m.text, 12, 30+i*debugLineHeight)
	}

	if h.promptShown {
		label := h.strings.Get("Hold SPACE to break free")
		x := float64(w-promptBarWidth) / 2
		y := float64(hgt) / 2
		ebitenutil.DebugPrintAt(screen, label, int(x), int(y)-debugLineHeight-4)
		ebitenutil.DrawRect(screen, x, y, promptBarWidth, promptBarHeight, promptBG)
		fill := promptFill
		if h.progress > 50 {
			fill = promptHotFG
		}
		ebitenutil.DrawRect(screen, x, y, promptBarWidth*h.progress/100, promptBarHeight, fill)
	}

	if h.subtitleShown && len(h.subtitle) > 0 {
		boxH := len(h.subtitle)*debugLineHeight + 12
		top := hgt - subtitleBottomGap - boxH
		ebitenutil.DrawRect(screen, 40, float64(top), float64(w-80), float64(boxH), subtitleBG)
		for i, line := range h.subtitle {
			// DebugPrint 字体每个半角单元 6 像素
			lineW := runewidth.StringWidth(line) * debugCharWidth
			ebitenutil.DebugPrintAt(screen, line, (w-lineW)/2, top+6+i*debugLineHeight)
		}
	}
}
