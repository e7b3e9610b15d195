package components

import (
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// BandSegment 束缚带上的一段刚性小块
type BandSegment struct {
	// Index 段序号（0..n-1）
	Index int

	// Angle 段在环上的角位置（弧度）
	Angle float64

	// Jitter 每段独立的随机种子 [0,1)
	Jitter float64

	// BendAngle 当前弯曲角（度）
	BendAngle float64

	// StretchScale / CompressScale 拉伸与压缩缩放
	StretchScale  float64
	CompressScale float64

	// Emissive 过热发光强度 [0,1]
	Emissive float64

	// ShakeAngle 挣扎抖动附加的旋转（度）
	ShakeAngle float64

	// Offset 断裂后相对环上位置的位移（下落 + 散开）
	Offset utils.Vec3

	// 断裂动画状态
	BreakDelay   float64    // 开始断裂前的等待（秒）
	BreakElapsed float64    // 断裂开始后的时间（秒）
	SnapFrom     float64    // 断裂瞬间的弯曲角
	SnapDir      float64    // 甩动方向 ±1
	Scatter      utils.Vec3 // 水平散开目标
	Settled      bool       // 断裂动画已结束
}

// BandAttachment 束缚带跟随的骨骼
type BandAttachment struct {
	BoneName string
	Offset   utils.Vec3 // 束缚带位置 - 骨骼位置（挂载时记录）
}

// RestraintBandComponent 可形变束缚带（手铐/脚镣）
//
// 生命周期：关卡构建时以未挂载、strain=0 创建；骨骼可用后挂载；
// 挣脱输入门驱动 strain；break-free 时断裂，断裂不可逆。
type RestraintBandComponent struct {
	Limb     types.Limb
	Segments []BandSegment

	// Strain 形变强度 [0,1]
	Strain float64

	// Attachment 为 nil 表示未挂载（静止或正在散落）
	Attachment *BandAttachment

	// Broken 已断裂（单向）
	Broken bool

	// Frozen 断裂动画被跳过命令冻结
	Frozen bool

	// Position 束缚带中心位置（世界坐标）
	Position utils.Vec3

	// Shaking 挣扎抖动中
	Shaking   bool
	ShakeTime float64

	// Procedural 使用程序化圆环（模型加载失败时）
	Procedural bool
	// ModelHandle 外部模型句柄
	ModelHandle string
}

// AllSettled 断裂动画是否全部结束
func (b *RestraintBandComponent) AllSettled() bool {
	for i := range b.Segments {
		if !b.Segments[i].Settled {
			return false
		}
	}
	return true
}
