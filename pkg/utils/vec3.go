package utils

import "math"

// Vec3 三维向量（世界坐标，Y 轴向上）
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// V3 构造 Vec3
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add 向量加法
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub 向量减法
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale 数乘
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Length 向量长度
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance 两点距离
func (v Vec3) Distance(o Vec3) float64 {
	return v.Sub(o).Length()
}

// LerpVec3 向量线性插值
func LerpVec3(a, b Vec3, t float64) Vec3 {
	return Vec3{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t), Lerp(a.Z, b.Z, t)}
}

// YawPitchTo 计算从 from 看向 to 的偏航角和俯仰角（弧度）
// 偏航角以 -Z 方向为 0，俯仰角向上为正
func YawPitchTo(from, to Vec3) (yaw, pitch float64) {
	d := to.Sub(from)
	horiz := math.Hypot(d.X, d.Z)
	yaw = math.Atan2(d.X, -d.Z)
	pitch = math.Atan2(d.Y, horiz)
	return yaw, pitch
}
