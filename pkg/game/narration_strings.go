package game

import (
	"fmt"
	"os"

	"github.com/gonewx/cellbreak/pkg/embedded"
	"github.com/leonelquinteros/gotext"
)

// lookupPo 运行时按 msgid 查找翻译
// 通过函数变量调用，msgid 不作为格式串检查，也不传格式参数
var lookupPo = (*gotext.Po).Get

// NarrationStrings 旁白与界面文本本地化
// 台词原文（英文）即 msgid，翻译从 data/locale/<lang>.po 加载
type NarrationStrings struct {
	po   *gotext.Po
	lang string
}

// LocalePath 返回语言对应的 .po 文件路径
func LocalePath(lang string) string {
	return fmt.Sprintf("data/locale/%s.po", lang)
}

// NewNarrationStrings 加载指定语言的文本
//
// 参数：
//   - lang: 语言代码。空字符串或 "en" 表示原文，不加载翻译
//
// 返回：
//   - *NarrationStrings: 文本管理器（失败时仍返回可用的原文管理器）
//   - error: 如果 .po 文件读取失败
func NewNarrationStrings(lang string) (*NarrationStrings, error) {
	ns := &NarrationStrings{lang: lang}
	if lang == "" || lang == "en" {
		return ns, nil
	}

	path := LocalePath(lang)
	var (
		data []byte
		err  error
	)
	if embedded.Exists(path) {
		data, err = embedded.ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return ns, fmt.Errorf("failed to read locale %s: %w", path, err)
	}

	po := gotext.NewPo()
	po.Parse(data)
	ns.po = po
	return ns, nil
}

// Get 返回翻译后的文本，没有翻译时返回原文
// nil 接收者安全
func (ns *NarrationStrings) Get(msgid string) string {
	if ns == nil || ns.po == nil || msgid == "" {
		return msgid
	}
	return lookupPo(ns.po, msgid)
}

// Language 返回当前语言
func (ns *NarrationStrings) Language() string {
	if ns == nil || ns.lang == "" {
		return "en"
	}
	return ns.lang
}
