//go:build !mobile

// Package mobile 是 ebitenmobile 绑定入口
//
// 绑定代码只在 -tags mobile 时编译（mobile.go、embed.go）。
// 桌面构建时本包为空，go build ./... 和 go vet ./... 仍可覆盖到它。
package mobile
