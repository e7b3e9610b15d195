package entities

import (
	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/ecs"
)

// NewPlayerEntity 创建玩家实体（动画状态 + 程序化身体动画）
// 玩家的变换和属性保存在 game.PlayerState 中，实体只承载动画
func NewPlayerEntity(em *ecs.EntityManager) ecs.EntityID {
	id := em.CreateEntity()

	ecs.AddComponent(em, id, &components.AnimationStateComponent{
		Speed: 1,
	})
	ecs.AddComponent(em, id, &components.PlayerBodyComponent{})

	return id
}

// NewBreakFreeGateEntity 创建挣脱输入门实体
func NewBreakFreeGateEntity(em *ecs.EntityManager) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.BreakFreeGateComponent{})
	return id
}

// NewIntroSequenceEntity 创建开场序列游标实体
func NewIntroSequenceEntity(em *ecs.EntityManager) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.IntroSequenceComponent{
		State: components.IntroIdle,
	})
	return id
}
