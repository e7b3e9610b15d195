package scenes

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

// TestHUDSubtitleWrap 测试字幕按显示宽度折行
func TestHUDSubtitleWrap(t *testing.T) {
	h := NewHUD(nil)
	long := strings.Repeat("pull harder ", 10)
	h.ShowSubtitle(long)

	if !h.SubtitleVisible() {
		t.Fatal("字幕应可见")
	}
	lines := h.SubtitleLines()
	if len(lines) < 2 {
		t.Fatalf("长字幕应折行, 得到 %d 行", len(lines))
	}
	for _, line := range lines {
		if w := runewidth.StringWidth(line); w > subtitleMaxCells {
			t.Errorf("行宽 %d 超过 %d: %q", w, subtitleMaxCells, line)
		}
	}

	h.HideSubtitle()
	if h.SubtitleVisible() || len(h.SubtitleLines()) != 0 {
		t.Error("HideSubtitle 后字幕应清空")
	}
}

// TestHUDPromptProgress 测试挣脱提示与进度条
func TestHUDPromptProgress(t *testing.T) {
	tests := []struct {
		name string
		set  float64
		want float64
	}{
		{"正常值", 42, 42},
		{"超过上限", 130, 100},
		{"负值", -5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHUD(nil)
			h.ShowBreakFreePrompt()
			h.SetBreakFreeProgress(tt.set)
			if !h.PromptVisible() {
				t.Error("提示应可见")
			}
			if h.Progress() != tt.want {
				t.Errorf("Progress() = %v, 期望 %v", h.Progress(), tt.want)
			}
			h.HideBreakFreePrompt()
			if h.PromptVisible() {
				t.Error("提示应隐藏")
			}
		})
	}
}

// TestHUDMessagesExpire 测试提示消息过期与数量上限
func TestHUDMessagesExpire(t *testing.T) {
	h := NewHUD(nil)
	for i := 0; i < maxMessages+2; i++ {
		h.ShowMessage("Picked up keycard")
	}
	if got := len(h.Messages()); got != maxMessages {
		t.Fatalf("消息数 = %d, 期望 %d", got, maxMessages)
	}

	h.Update(messageDurationSec / 2)
	if len(h.Messages()) != maxMessages {
		t.Error("未到期的消息不应移除")
	}
	h.Update(messageDurationSec)
	if len(h.Messages()) != 0 {
		t.Errorf("到期后消息应清空, 剩余 %v", h.Messages())
	}
}

// TestHUDObjective 测试目标文本
func TestHUDObjective(t *testing.T) {
	h := NewHUD(nil)
	h.SetObjective("Find a way out of the cell")
	if h.Objective() != "Find a way out of the cell" {
		t.Errorf("Objective() = %q", h.Objective())
	}
}
