package systems

import (
	"strings"
	"unicode"

	"github.com/gonewx/cellbreak/pkg/utils"
)

// 语速/音调的允许范围
const (
	MinVoiceMultiplier = 0.5
	MaxVoiceMultiplier = 2.0
)

// voiceCategory 台词情绪类别
type voiceCategory struct {
	name    string
	words   []string // 单词匹配（忽略大小写）
	phrases []string // 子串匹配（忽略大小写）
	marks   string   // 标点匹配
	rate    float64
	pitch   float64
}

var voiceCategories = []voiceCategory{
	{
		name:  "confusion",
		words: []string{"where", "what", "who", "huh", "why"},
		marks: "?",
		rate:  0.9, pitch: 1.1,
	},
	{
		name:  "pain",
		words: []string{"ugh", "ow", "ouch", "hurt", "hurts", "pain", "cutting"},
		rate:  0.85, pitch: 0.9,
	},
	{
		name:    "alarm",
		words:   []string{"help", "no", "strapped", "trapped"},
		phrases: []string{"can't move", "cannot move"},
		marks:   "!",
		rate:    1.15, pitch: 1.15,
	},
	{
		name:    "determination",
		words:   []string{"focus", "pull", "hard", "must"},
		phrases: []string{"need to", "have to"},
		rate:    0.95, pitch: 0.95,
	},
	{
		name:    "triumph",
		words:   []string{"free", "snapped", "yes"},
		phrases: []string{"did it"},
		rate:    1.1, pitch: 1.2,
	},
	{
		name:  "discovery",
		words: []string{"restraint", "restraints", "look", "there", "found", "door", "keycard"},
		rate:  1.0, pitch: 1.05,
	},
}

// VoiceCategories 返回台词命中的情绪类别名称
func VoiceCategories(text string) []string {
	lower := strings.ToLower(text)
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}) {
		words[w] = true
	}

	var matched []string
	for _, c := range voiceCategories {
		if categoryMatches(c, lower, words) {
			matched = append(matched, c.name)
		}
	}
	return matched
}

func categoryMatches(c voiceCategory, lower string, words map[string]bool) bool {
	if c.marks != "" && strings.ContainsAny(lower, c.marks) {
		return true
	}
	for _, w := range c.words {
		if words[w] {
			return true
		}
	}
	for _, p := range c.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ModulateVoice 按台词情绪调整语速和音调
//
// 命中的类别倍数相乘，再乘以基础值，结果限制在 [0.5, 2.0]
func ModulateVoice(text string, baseRate, basePitch float64) (rate, pitch float64) {
	if baseRate <= 0 {
		baseRate = 1
	}
	if basePitch <= 0 {
		basePitch = 1
	}
	rate, pitch = baseRate, basePitch

	matched := make(map[string]bool)
	for _, name := range VoiceCategories(text) {
		matched[name] = true
	}
	for _, c := range voiceCategories {
		if matched[c.name] {
			rate *= c.rate
			pitch *= c.pitch
		}
	}
	return utils.Clamp(rate, MinVoiceMultiplier, MaxVoiceMultiplier),
		utils.Clamp(pitch, MinVoiceMultiplier, MaxVoiceMultiplier)
}
