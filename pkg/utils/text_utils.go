package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// WrapByWidth 将文本按终端/字幕显示宽度自动换行
// 参数:
//   - textStr: 要换行的文本
//   - maxCells: 每行最大显示宽度（全角字符占 2 格）
//
// 返回:
//   - []string: 换行后的文本数组
//
// 换行规则:
//   - 优先在空格处断行
//   - 单词本身超过最大宽度时按字符强制断行
//   - 中英文混排按显示宽度计算
func WrapByWidth(textStr string, maxCells int) []string {
	if textStr == "" || maxCells <= 0 || runewidth.StringWidth(textStr) <= maxCells {
		return []string{textStr}
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(textStr) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if runewidth.StringWidth(candidate) <= maxCells {
			current = candidate
			continue
		}

		if current != "" {
			lines = append(lines, current)
			current = ""
		}

		// 单词超宽：按字符切分
		for runewidth.StringWidth(word) > maxCells {
			head := runewidth.Truncate(word, maxCells, "")
			if head == "" {
				// 单个字符就超宽，强制输出
				r := []rune(word)
				head = string(r[:1])
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		current = word
	}

	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// PadToWidth 右侧补空格到指定显示宽度（超宽时截断并加省略号）
func PadToWidth(textStr string, cells int) string {
	if runewidth.StringWidth(textStr) > cells {
		return runewidth.Truncate(textStr, cells, "…")
	}
	return runewidth.FillRight(textStr, cells)
}
