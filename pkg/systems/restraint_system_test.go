package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/entities"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

func newTestRestraint() (*RestraintSystem, *ecs.EntityManager, *config.IntroConfig) {
	em := ecs.NewEntityManager()
	cfg := config.DefaultIntroConfig()
	rng := rand.New(rand.NewSource(42))
	rs := NewRestraintSystem(em, cfg.Restraint, rng)
	rs.SetBandFactory(func(limb types.Limb) ecs.EntityID {
		return entities.NewRestraintBandEntity(em, cfg.Restraint, limb, cfg.RestPositionFor(limb), nil, rng)
	})
	entities.NewRestraintBands(em, cfg, nil, rng)
	return rs, em, cfg
}

func bandOf(t *testing.T, em *ecs.EntityManager, id ecs.EntityID) *components.RestraintBandComponent {
	t.Helper()
	band, ok := ecs.GetComponent[*components.RestraintBandComponent](em, id)
	if !ok {
		t.Fatalf("实体 %d 不是束缚带", id)
	}
	return band
}

// TestBendMonotonicInStrain 弯曲、拉伸、发热随 strain 单调不减，压缩单调不增
func TestBendMonotonicInStrain(t *testing.T) {
	rs, em, _ := newTestRestraint()
	id := rs.Bands()[0]

	var prev []components.BandSegment
	for step := 0; step <= 20; step++ {
		rs.SetStrain(id, float64(step)/20)
		band := bandOf(t, em, id)
		cur := append([]components.BandSegment(nil), band.Segments...)
		if prev != nil {
			for i := range cur {
				if cur[i].BendAngle < prev[i].BendAngle-1e-12 {
					t.Fatalf("段 %d 弯曲在 strain=%.2f 时下降", i, band.Strain)
				}
				if cur[i].StretchScale < prev[i].StretchScale-1e-12 {
					t.Fatalf("段 %d 拉伸下降", i)
				}
				if cur[i].CompressScale > prev[i].CompressScale+1e-12 {
					t.Fatalf("段 %d 压缩上升", i)
				}
				if cur[i].Emissive < prev[i].Emissive-1e-12 {
					t.Fatalf("段 %d 发热下降", i)
				}
			}
		}
		prev = cur
	}
}

func TestBendPeaksMidBand(t *testing.T) {
	n := 12
	mid := BendForStrain(1, n/2, n, 35, 0, 0)
	end := BendForStrain(1, 0, n, 35, 0, 0)
	if mid <= end {
		t.Errorf("中段弯曲 %.2f 应大于端部 %.2f", mid, end)
	}
	if got := BendForStrain(0, n/2, n, 35, 4, 0.9); got != 0 {
		t.Errorf("strain=0 时弯曲 = %.2f, 期望 0", got)
	}
}

func TestHeatForStrain(t *testing.T) {
	tests := []struct {
		strain float64
		want   float64
	}{
		{0, 0},
		{0.5, 0},
		{0.75, 0.5},
		{1, 1},
	}
	for _, tt := range tests {
		if got := HeatForStrain(tt.strain, 0.5); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("HeatForStrain(%.2f) = %.3f, 期望 %.3f", tt.strain, got, tt.want)
		}
	}
}

func TestSetStrainIdempotentAndRelaxes(t *testing.T) {
	rs, em, _ := newTestRestraint()
	id := rs.Bands()[0]

	rs.SetStrain(id, 0.6)
	first := append([]components.BandSegment(nil), bandOf(t, em, id).Segments...)
	rs.SetStrain(id, 0.6)
	for i, seg := range bandOf(t, em, id).Segments {
		if seg.BendAngle != first[i].BendAngle {
			t.Fatal("相同 strain 重复设置应得到相同形变")
		}
	}

	rs.SetStrain(id, 0)
	for _, seg := range bandOf(t, em, id).Segments {
		if seg.BendAngle != 0 || seg.StretchScale != 1 || seg.Emissive != 0 {
			t.Fatal("strain 回到 0 时应完全回弹")
		}
	}
}

// TestBreakIdempotent 断裂单向且重复调用无效果
func TestBreakIdempotent(t *testing.T) {
	rs, em, _ := newTestRestraint()
	sparks := 0
	rs.SetSparkSpawner(func(utils.Vec3) { sparks++ })

	id := rs.Bands()[0]
	rs.SetStrain(id, 0.8)
	if !rs.Break(id, 0) {
		t.Fatal("第一次 Break 应返回 true")
	}
	snapshot := append([]components.BandSegment(nil), bandOf(t, em, id).Segments...)
	if rs.Break(id, 0) {
		t.Error("第二次 Break 应返回 false")
	}
	for i, seg := range bandOf(t, em, id).Segments {
		if seg.BreakDelay != snapshot[i].BreakDelay || seg.Scatter != snapshot[i].Scatter {
			t.Fatal("重复 Break 不应重置断裂动画")
		}
	}
	if sparks != 1 {
		t.Errorf("火花生成 %d 次, 期望 1", sparks)
	}

	// 断裂后 strain 不再生效
	rs.SetStrain(id, 0)
	if band := bandOf(t, em, id); band.Strain != 0.8 {
		t.Errorf("断裂后 strain 被修改为 %.2f", band.Strain)
	}
}

func TestBreakAllStaggerAndSettle(t *testing.T) {
	rs, em, cfg := newTestRestraint()
	rs.SetStrainAll(1)
	if n := rs.BreakAll(); n != 4 {
		t.Fatalf("BreakAll = %d, 期望 4", n)
	}
	if !rs.AllBroken() {
		t.Fatal("BreakAll 后应全部断裂")
	}
	if n := rs.BreakAll(); n != 0 {
		t.Errorf("第二次 BreakAll = %d, 期望 0", n)
	}

	ids := rs.Bands()
	first := bandOf(t, em, ids[0])
	last := bandOf(t, em, ids[3])
	if !(last.Segments[0].BreakDelay > first.Segments[0].BreakDelay) {
		t.Error("后面的束缚带应更晚开始断裂")
	}
	if !(first.Segments[1].BreakDelay > first.Segments[0].BreakDelay) {
		t.Error("同一束缚带内后面的段应更晚开始")
	}

	total := float64(3*cfg.Restraint.BandStaggerMs+(cfg.Restraint.Segments-1)*cfg.Restraint.SegmentStaggerMs+
		cfg.Restraint.SnapDurationMs+cfg.Restraint.FallDurationMs)/1000 + 0.1
	for elapsed := 0.0; elapsed < total; elapsed += testDT {
		rs.Update(testDT)
	}
	for _, id := range ids {
		band := bandOf(t, em, id)
		if !band.AllSettled() {
			t.Errorf("%s 断裂动画应已结束", band.Limb)
		}
		for _, seg := range band.Segments {
			if math.Abs(seg.Offset.Y+cfg.Restraint.FallDistance) > 1e-9 {
				t.Fatalf("段应落下 %.2f, got %.3f", cfg.Restraint.FallDistance, seg.Offset.Y)
			}
		}
	}
}

func TestAttachFollowsBone(t *testing.T) {
	rs, em, cfg := newTestRestraint()
	skel := &fakeSkeleton{bones: []Bone{
		{Name: "hand.L", Position: utils.V3(-0.3, 0.6, -0.1)},
		{Name: "hand.R", Position: utils.V3(0.3, 0.6, -0.1)},
		{Name: "foot.L", Position: utils.V3(-0.15, 0.6, 0.8)},
		{Name: "foot.R", Position: utils.V3(0.15, 0.6, 0.8)},
	}}
	rs.SetSkeleton(skel)

	if n := rs.AttachAll(cfg.BoneFor); n != 4 {
		t.Fatalf("AttachAll = %d, 期望 4", n)
	}

	id := rs.Bands()[0]
	before := bandOf(t, em, id).Position
	skel.move("hand.L", utils.V3(-0.3, 1.0, -0.1))
	rs.Update(testDT)

	after := bandOf(t, em, id).Position
	if math.Abs(after.Y-before.Y-0.4) > 1e-9 {
		t.Errorf("束缚带应随骨骼上移 0.4, got %.3f", after.Y-before.Y)
	}
}

func TestAttachFallback(t *testing.T) {
	tests := []struct {
		name     string
		skeleton Skeleton
		bone     string
		wantOK   bool
		wantBone string
	}{
		{"名称匹配", &fakeSkeleton{bones: []Bone{{Name: "hand.L"}}}, "hand.L", true, "hand.L"},
		{
			"名称不存在时回退到最近骨骼",
			&fakeSkeleton{bones: []Bone{
				{Name: "spine", Position: utils.V3(0, 0.6, 0.3)},
				{Name: "forearm.L", Position: utils.V3(-0.3, 0.62, -0.1)},
			}},
			"mixamorig:LeftHand", true, "forearm.L",
		},
		{"没有骨骼时保持未挂载", &fakeSkeleton{}, "hand.L", false, ""},
		{"没有骨骼查询时保持未挂载", nil, "hand.L", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, em, _ := newTestRestraint()
			if tt.skeleton != nil {
				rs.SetSkeleton(tt.skeleton)
			}
			id := rs.Bands()[0]
			if got := rs.AttachTo(id, tt.bone); got != tt.wantOK {
				t.Fatalf("AttachTo = %v, 期望 %v", got, tt.wantOK)
			}
			band := bandOf(t, em, id)
			if !tt.wantOK {
				if band.Attachment != nil {
					t.Error("失败时不应挂载")
				}
				return
			}
			if band.Attachment.BoneName != tt.wantBone {
				t.Errorf("挂载骨骼 = %q, 期望 %q", band.Attachment.BoneName, tt.wantBone)
			}
		})
	}
}

func TestShakeAndStopAnimations(t *testing.T) {
	rs, em, _ := newTestRestraint()
	rs.StartShakeAll()
	rs.Update(0.05)
	if !rs.IsShaking() {
		t.Fatal("应处于抖动中")
	}

	id := rs.Bands()[0]
	rs.Break(id, 0)
	for i := 0; i < 10; i++ {
		rs.Update(testDT)
	}
	rs.StopAnimations()
	if rs.IsShaking() {
		t.Error("StopAnimations 后不应抖动")
	}

	frozen := append([]components.BandSegment(nil), bandOf(t, em, id).Segments...)
	for i := 0; i < 60; i++ {
		rs.Update(testDT)
	}
	for i, seg := range bandOf(t, em, id).Segments {
		if seg.BendAngle != frozen[i].BendAngle || seg.Offset != frozen[i].Offset {
			t.Fatal("StopAnimations 后断裂动画应冻结")
		}
	}
}

func TestResetAll(t *testing.T) {
	rs, em, _ := newTestRestraint()
	rs.SetStrainAll(1)
	rs.BreakAll()
	rs.ResetAll()

	ids := rs.Bands()
	if len(ids) != 4 {
		t.Fatalf("重置后应有 4 条束缚带, got %d", len(ids))
	}
	for _, id := range ids {
		band := bandOf(t, em, id)
		if band.Broken || band.Strain != 0 {
			t.Error("重置后的束缚带应未断裂、strain=0")
		}
	}
	if rs.AllBroken() {
		t.Error("重置后 AllBroken 应为 false")
	}
}
