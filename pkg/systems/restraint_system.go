package systems

import (
	"log"
	"math"
	"math/rand"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// SparkSpawner 在指定位置生成火花爆发
type SparkSpawner func(position utils.Vec3)

// BandFactory 重新创建一条束缚带（restrain 命令使用）
type BandFactory func(limb types.Limb) ecs.EntityID

// RestraintSystem 可形变束缚带系统
//
// 职责：
//   - strain → 每段弯曲/拉伸/压缩/发热（同一公式，strain 下降即部分回弹）
//   - 挂载骨骼后每 tick 跟随骨骼
//   - 挣扎抖动
//   - 断裂：分段错开的甩动 + 下落散开，并生成火花
type RestraintSystem struct {
	entityManager *ecs.EntityManager
	cfg           config.RestraintConfig
	rng           *rand.Rand

	skeleton    Skeleton
	sparks      SparkSpawner
	bandFactory BandFactory
}

// NewRestraintSystem 创建束缚带系统
func NewRestraintSystem(em *ecs.EntityManager, cfg config.RestraintConfig, rng *rand.Rand) *RestraintSystem {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &RestraintSystem{
		entityManager: em,
		cfg:           cfg,
		rng:           rng,
	}
}

// SetSkeleton 设置骨骼查询（玩家模型就绪后调用）
func (rs *RestraintSystem) SetSkeleton(s Skeleton) {
	rs.skeleton = s
}

// SetSparkSpawner 设置火花生成回调
func (rs *RestraintSystem) SetSparkSpawner(fn SparkSpawner) {
	rs.sparks = fn
}

// SetBandFactory 设置束缚带工厂
func (rs *RestraintSystem) SetBandFactory(fn BandFactory) {
	rs.bandFactory = fn
}

// Bands 返回所有束缚带实体（按实体ID顺序，即创建顺序）
func (rs *RestraintSystem) Bands() []ecs.EntityID {
	return ecs.GetEntitiesWith1[*components.RestraintBandComponent](rs.entityManager)
}

func (rs *RestraintSystem) band(id ecs.EntityID) (*components.RestraintBandComponent, bool) {
	return ecs.GetComponent[*components.RestraintBandComponent](rs.entityManager, id)
}

// BendForStrain 计算第 i 段（共 n 段）在给定 strain 下的弯曲角（度）
//
// 权重为 sin(π(i+0.5)/n)，中段最大、两端（靠近固定支架）最小；
// jitter ∈ [0,1) 叠加少量随机弯曲。对 strain 单调不减。
func BendForStrain(strain float64, i, n int, maxBendDeg, jitterDeg, jitter float64) float64 {
	strain = utils.Clamp01(strain)
	weight := math.Sin(math.Pi * (float64(i) + 0.5) / float64(n))
	return strain * (maxBendDeg*weight + jitterDeg*jitter)
}

// HeatForStrain 过热发光强度：超过阈值后按 (strain-th)/(1-th) 线性上升
func HeatForStrain(strain, threshold float64) float64 {
	if strain <= threshold {
		return 0
	}
	return utils.Clamp01((strain - threshold) / (1 - threshold))
}

// SetStrain 设置单条束缚带的 strain（幂等，可每 tick 调用）
// 已断裂的束缚带忽略
func (rs *RestraintSystem) SetStrain(id ecs.EntityID, strain float64) {
	band, ok := rs.band(id)
	if !ok || band.Broken {
		return
	}
	strain = utils.Clamp01(strain)
	band.Strain = strain

	n := len(band.Segments)
	heat := HeatForStrain(strain, rs.cfg.HeatThreshold)
	for i := range band.Segments {
		seg := &band.Segments[i]
		seg.BendAngle = BendForStrain(strain, i, n, rs.cfg.MaxBendDeg, rs.cfg.JitterDeg, seg.Jitter)
		seg.StretchScale = 1 + rs.cfg.StretchGain*strain
		seg.CompressScale = 1 - rs.cfg.CompressGain*strain
		seg.Emissive = heat
	}
}

// SetStrainAll 设置所有束缚带的 strain
func (rs *RestraintSystem) SetStrainAll(strain float64) {
	for _, id := range rs.Bands() {
		rs.SetStrain(id, strain)
	}
}

// AttachTo 把束缚带挂载到骨骼
//
// 按名称查找失败时回退到距离最近的骨骼（记录诊断日志）；
// 没有任何骨骼时保持未挂载。已断裂的束缚带不能挂载。
func (rs *RestraintSystem) AttachTo(id ecs.EntityID, boneName string) bool {
	band, ok := rs.band(id)
	if !ok || band.Broken {
		return false
	}
	if rs.skeleton == nil {
		log.Printf("[RestraintSystem] No skeleton available, %s stays unattached", band.Limb)
		return false
	}

	bone, found := rs.skeleton.Bone(boneName)
	if !found {
		nearest, dist, ok := nearestBone(rs.skeleton.Bones(), band.Position)
		if !ok {
			log.Printf("[RestraintSystem] Bone %q not found and skeleton is empty, %s stays unattached", boneName, band.Limb)
			return false
		}
		log.Printf("[RestraintSystem] Bone %q not found for %s, using nearest bone %q (%.3f away)",
			boneName, band.Limb, nearest.Name, dist)
		bone = nearest
	}

	band.Attachment = &components.BandAttachment{
		BoneName: bone.Name,
		Offset:   band.Position.Sub(bone.Position),
	}
	return true
}

func nearestBone(bones []Bone, pos utils.Vec3) (Bone, float64, bool) {
	best := -1
	bestDist := math.MaxFloat64
	for i, b := range bones {
		if d := b.Position.Distance(pos); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Bone{}, 0, false
	}
	return bones[best], bestDist, true
}

// AttachAll 按肢体 → 骨骼名映射挂载所有束缚带，返回成功挂载数
func (rs *RestraintSystem) AttachAll(boneFor func(types.Limb) string) int {
	attached := 0
	for _, id := range rs.Bands() {
		band, _ := rs.band(id)
		if rs.AttachTo(id, boneFor(band.Limb)) {
			attached++
		}
	}
	return attached
}

// Break 断裂束缚带（单向，重复调用无效果）
//
// 参数：
//   - order: 束缚带的错开序号，第 order 条比第一条晚 order*bandStagger 开始
//
// 返回：
//   - bool: 本次调用是否触发了断裂
func (rs *RestraintSystem) Break(id ecs.EntityID, order int) bool {
	band, ok := rs.band(id)
	if !ok || band.Broken {
		return false
	}

	band.Broken = true
	band.Attachment = nil
	band.Shaking = false

	bandDelay := float64(order*rs.cfg.BandStaggerMs) / 1000
	segDelay := float64(rs.cfg.SegmentStaggerMs) / 1000
	for i := range band.Segments {
		seg := &band.Segments[i]
		seg.ShakeAngle = 0
		seg.BreakDelay = bandDelay + float64(i)*segDelay
		seg.BreakElapsed = 0
		seg.SnapFrom = seg.BendAngle
		seg.SnapDir = 1
		if rs.rng.Float64() < 0.5 {
			seg.SnapDir = -1
		}
		angle := rs.rng.Float64() * 2 * math.Pi
		radius := rs.cfg.ScatterRadius * (0.3 + 0.7*rs.rng.Float64())
		seg.Scatter = utils.V3(math.Cos(angle)*radius, 0, math.Sin(angle)*radius)
		seg.Settled = false
	}

	log.Printf("[RestraintSystem] %s broke", band.Limb)
	if rs.sparks != nil {
		rs.sparks(band.Position)
	}
	return true
}

// BreakAll 依次错开断裂所有束缚带，返回本次断裂数
func (rs *RestraintSystem) BreakAll() int {
	broken := 0
	for order, id := range rs.Bands() {
		if rs.Break(id, order) {
			broken++
		}
	}
	return broken
}

// AllBroken 所有束缚带都已断裂（没有束缚带时返回 true）
func (rs *RestraintSystem) AllBroken() bool {
	for _, id := range rs.Bands() {
		if band, _ := rs.band(id); !band.Broken {
			return false
		}
	}
	return true
}

// StartShakeAll 开始挣扎抖动（已断裂的束缚带忽略）
func (rs *RestraintSystem) StartShakeAll() {
	for _, id := range rs.Bands() {
		band, _ := rs.band(id)
		if !band.Broken {
			band.Shaking = true
		}
	}
}

// StopShakeAll 停止挣扎抖动并归零抖动角
func (rs *RestraintSystem) StopShakeAll() {
	for _, id := range rs.Bands() {
		band, _ := rs.band(id)
		band.Shaking = false
		band.ShakeTime = 0
		for i := range band.Segments {
			band.Segments[i].ShakeAngle = 0
		}
	}
}

// IsShaking 是否有束缚带在抖动
func (rs *RestraintSystem) IsShaking() bool {
	for _, id := range rs.Bands() {
		if band, _ := rs.band(id); band.Shaking {
			return true
		}
	}
	return false
}

// StopAnimations 停止所有进行中的束缚带动画（抖动和断裂散落）
func (rs *RestraintSystem) StopAnimations() {
	rs.StopShakeAll()
	for _, id := range rs.Bands() {
		band, _ := rs.band(id)
		if band.Broken && !band.AllSettled() {
			band.Frozen = true
		}
	}
}

// ResetAll 销毁现有束缚带并用工厂重新创建（回到未断裂、strain=0）
func (rs *RestraintSystem) ResetAll() {
	if rs.bandFactory == nil {
		log.Printf("[RestraintSystem] No band factory, cannot reset restraints")
		return
	}
	for _, id := range rs.Bands() {
		ecs.RemoveComponent[*components.RestraintBandComponent](rs.entityManager, id)
		rs.entityManager.DestroyEntity(id)
	}
	for _, limb := range types.AllLimbs() {
		rs.bandFactory(limb)
	}
}

// Update 每 tick 更新：骨骼跟随、挣扎抖动、断裂动画（PhaseRestraint）
func (rs *RestraintSystem) Update(dt float64) {
	for _, id := range rs.Bands() {
		band, _ := rs.band(id)

		if band.Attachment != nil && rs.skeleton != nil {
			if bone, ok := rs.skeleton.Bone(band.Attachment.BoneName); ok {
				band.Position = bone.Position.Add(band.Attachment.Offset)
			}
		}

		if band.Shaking {
			band.ShakeTime += dt
			amp := rs.cfg.ShakeAmplitudeDeg
			w := 2 * math.Pi * rs.cfg.ShakeFrequencyHz
			for i := range band.Segments {
				seg := &band.Segments[i]
				seg.ShakeAngle = amp * math.Sin(w*band.ShakeTime+seg.Angle)
			}
		}

		if band.Broken && !band.Frozen {
			rs.updateBreak(band, dt)
		}
	}
}

// updateBreak 断裂动画：等待错开延迟 → 甩动（snap）→ 回落并下落散开
func (rs *RestraintSystem) updateBreak(band *components.RestraintBandComponent, dt float64) {
	snap := float64(rs.cfg.SnapDurationMs) / 1000
	fall := float64(rs.cfg.FallDurationMs) / 1000

	for i := range band.Segments {
		seg := &band.Segments[i]
		if seg.Settled {
			continue
		}
		step := dt
		if seg.BreakDelay > 0 {
			seg.BreakDelay -= dt
			if seg.BreakDelay > 0 {
				continue
			}
			// 把超出的时间计入动画
			step = -seg.BreakDelay
			seg.BreakDelay = 0
		}
		seg.BreakElapsed += step

		peak := seg.SnapFrom + seg.SnapDir*rs.cfg.SnapBendDeg
		if seg.BreakElapsed < snap {
			p := seg.BreakElapsed / snap
			seg.BendAngle = utils.Lerp(seg.SnapFrom, peak, utils.EaseOutCubic(p))
			continue
		}

		p := utils.Clamp01((seg.BreakElapsed - snap) / fall)
		rest := seg.SnapFrom + seg.SnapDir*rs.cfg.SnapBendDeg*0.3
		seg.BendAngle = utils.Lerp(peak, rest, utils.EaseOutCubic(p))
		seg.Offset = utils.V3(
			seg.Scatter.X*utils.EaseOutCubic(p),
			-rs.cfg.FallDistance*utils.EaseInQuad(p),
			seg.Scatter.Z*utils.EaseOutCubic(p),
		)
		if p >= 1 {
			seg.Settled = true
		}
	}
}
