package entities

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

func TestNewRestraintBandEntity(t *testing.T) {
	tests := []struct {
		name           string
		spawn          SpawnPropFunc
		wantProcedural bool
		wantHandle     string
	}{
		{"没有生成器时使用程序化圆环", nil, true, ""},
		{
			"模型加载成功",
			func(string, utils.Vec3) (string, error) { return "cuff#1", nil },
			false, "cuff#1",
		},
		{
			"模型加载失败回退到程序化圆环",
			func(string, utils.Vec3) (string, error) { return "", errors.New("missing model") },
			true, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := ecs.NewEntityManager()
			cfg := config.DefaultIntroConfig()
			cfg.Restraint.ModelPath = "models/cuff.glb"

			id := NewRestraintBandEntity(em, cfg.Restraint, types.LimbLeftWrist, utils.V3(1, 2, 3), tt.spawn, rand.New(rand.NewSource(7)))
			band, ok := ecs.GetComponent[*components.RestraintBandComponent](em, id)
			if !ok {
				t.Fatal("缺少 RestraintBandComponent")
			}
			if band.Procedural != tt.wantProcedural || band.ModelHandle != tt.wantHandle {
				t.Errorf("Procedural=%v Handle=%q, 期望 %v %q", band.Procedural, band.ModelHandle, tt.wantProcedural, tt.wantHandle)
			}
			if len(band.Segments) != cfg.Restraint.Segments {
				t.Errorf("段数 = %d, 期望 %d", len(band.Segments), cfg.Restraint.Segments)
			}
			if band.Strain != 0 || band.Broken || band.Attachment != nil {
				t.Error("新束缚带应为未挂载、未断裂、strain=0")
			}
			for _, seg := range band.Segments {
				if seg.StretchScale != 1 || seg.CompressScale != 1 {
					t.Errorf("段 %d 初始缩放应为 1", seg.Index)
				}
			}
		})
	}
}

func TestNewRestraintBands(t *testing.T) {
	em := ecs.NewEntityManager()
	cfg := config.DefaultIntroConfig()
	ids := NewRestraintBands(em, cfg, nil, rand.New(rand.NewSource(1)))

	if len(ids) != 4 {
		t.Fatalf("应创建 4 条束缚带, got %d", len(ids))
	}
	for i, limb := range types.AllLimbs() {
		band, _ := ecs.GetComponent[*components.RestraintBandComponent](em, ids[i])
		if band.Limb != limb {
			t.Errorf("第 %d 条肢体 = %s, 期望 %s", i, band.Limb, limb)
		}
		if band.Position != cfg.RestPositionFor(limb) {
			t.Errorf("%s 初始位置 = %+v", limb, band.Position)
		}
	}
}

func TestNewSparkBurstEntity(t *testing.T) {
	em := ecs.NewEntityManager()
	origin := utils.V3(0, 1, 0)
	id := NewSparkBurstEntity(em, origin, 16, 1.0, rand.New(rand.NewSource(3)))

	spark, ok := ecs.GetComponent[*components.SparkComponent](em, id)
	if !ok || len(spark.Particles) != 16 {
		t.Fatal("火花爆发应包含 16 个粒子")
	}
	for _, p := range spark.Particles {
		if p.Velocity.Y < 0 {
			t.Error("初速度应朝上半球")
		}
		if p.Position != origin || p.Alpha != 1 {
			t.Error("粒子应从爆发中心以不透明开始")
		}
	}
	lifetime, ok := ecs.GetComponent[*components.LifetimeComponent](em, id)
	if !ok || lifetime.MaxLifetime != 1.0 {
		t.Error("火花爆发应在 1 秒后销毁")
	}
}

func TestNewPlayerEntity(t *testing.T) {
	em := ecs.NewEntityManager()
	id := NewPlayerEntity(em)
	if !ecs.HasComponent[*components.AnimationStateComponent](em, id) ||
		!ecs.HasComponent[*components.PlayerBodyComponent](em, id) {
		t.Error("玩家实体缺少动画组件")
	}
}
