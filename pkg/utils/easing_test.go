package utils

import (
	"math"
	"testing"
)

// TestEasingEndpoints 测试所有缓动函数的端点
func TestEasingEndpoints(t *testing.T) {
	funcs := map[string]EasingFunc{
		"EaseLinear":     EaseLinear,
		"EaseOutCubic":   EaseOutCubic,
		"EaseInQuad":     EaseInQuad,
		"EaseInOutQuad":  EaseInOutQuad,
		"EaseInOutCubic": EaseInOutCubic,
	}

	for name, fn := range funcs {
		t.Run(name, func(t *testing.T) {
			if got := fn(0); math.Abs(got) > 0.001 {
				t.Errorf("%s(0) = %v, 期望 0", name, got)
			}
			if got := fn(1); math.Abs(got-1) > 0.001 {
				t.Errorf("%s(1) = %v, 期望 1", name, got)
			}
			// 越界输入被截断
			if got := fn(1.5); math.Abs(got-1) > 0.001 {
				t.Errorf("%s(1.5) = %v, 期望 1", name, got)
			}
			if got := fn(-0.5); math.Abs(got) > 0.001 {
				t.Errorf("%s(-0.5) = %v, 期望 0", name, got)
			}
		})
	}
}

// TestEaseInOutQuad 测试二次方缓入缓出
func TestEaseInOutQuad(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"四分之一", 0.25, 0.125},
		{"中点", 0.5, 0.5},
		{"四分之三", 0.75, 0.875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EaseInOutQuad(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("EaseInOutQuad(%v) = %v, 期望 %v", tt.input, result, tt.expected)
			}
		})
	}

	t.Run("单调递增", func(t *testing.T) {
		prev := 0.0
		for p := 0.05; p <= 1.0; p += 0.05 {
			v := EaseInOutQuad(p)
			if v < prev {
				t.Errorf("EaseInOutQuad(%v) = %v 小于前一个值 %v", p, v, prev)
			}
			prev = v
		}
	})
}

// TestLerpAngle 测试角度插值走最短路径
func TestLerpAngle(t *testing.T) {
	// 从 170° 到 -170°，最短路径经过 180°
	a := 170 * math.Pi / 180
	b := -170 * math.Pi / 180
	mid := LerpAngle(a, b, 0.5)
	if math.Abs(math.Abs(mid)-math.Pi) > 0.001 {
		t.Errorf("LerpAngle 中点 = %v, 期望 ±π", mid)
	}
}

// TestClamp 测试截断
func TestClamp(t *testing.T) {
	if Clamp(150, 0, 100) != 100 {
		t.Error("Clamp(150, 0, 100) 期望 100")
	}
	if Clamp(-1, 0, 100) != 0 {
		t.Error("Clamp(-1, 0, 100) 期望 0")
	}
	if Clamp(42, 0, 100) != 42 {
		t.Error("Clamp(42, 0, 100) 期望 42")
	}
}
