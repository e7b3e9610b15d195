package utils

import "math"

// Easing Functions (缓动函数)
//
// 所有函数接受一个进度值 t ∈ [0, 1]，返回缓动后的值 ∈ [0, 1]。
// 输入越界时先截断到 [0, 1]，调用方无需自行处理超出时长的帧。
//
// 参考：https://easings.net/

// EasingFunc 缓动函数类型
type EasingFunc func(t float64) float64

// Clamp01 将 t 截断到 [0, 1]
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Clamp 将 v 截断到 [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// EaseLinear 线性缓动（匀速）
func EaseLinear(t float64) float64 {
	return Clamp01(t)
}

// EaseOutCubic 三次方缓出
// 特点：开始快，结束慢（用于碎片甩出后的回落）
// 公式：f(t) = 1 - (1-t)³
func EaseOutCubic(t float64) float64 {
	t = Clamp01(t)
	return 1 - math.Pow(1-t, 3)
}

// EaseInQuad 二次方缓入
// 特点：开始慢，结束快（用于重力下落）
// 公式：f(t) = t²
func EaseInQuad(t float64) float64 {
	t = Clamp01(t)
	return t * t
}

// EaseInOutQuad 二次方缓入缓出
// 相机关键帧插值使用此曲线（平滑起步、平滑停止）
//
//	t < 0.5: f(t) = 2t²
//	t >= 0.5: f(t) = 1 - (-2t + 2)² / 2
func EaseInOutQuad(t float64) float64 {
	t = Clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// EaseInOutCubic 三次方缓入缓出
// 坐起动作的组合旋转使用此曲线
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func EaseInOutCubic(t float64) float64 {
	t = Clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Lerp 线性插值
// t=0 返回 a，t=1 返回 b（t 不截断，允许外插）
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpAngle 角度插值（弧度），总是沿最短方向旋转
func LerpAngle(a, b, t float64) float64 {
	diff := math.Mod(b-a+math.Pi, 2*math.Pi)
	if diff < 0 {
		diff += 2 * math.Pi
	}
	return a + (diff-math.Pi)*t
}
