// Package ecs 是开场场景使用的最小实体-组件存储
//
// 组件只通过泛型函数访问（见 generics.go），按组件的动态类型存放，
// 每个实体每种类型最多一个组件。
package ecs

import (
	"reflect"
	"slices"
)

// EntityID 是实体的唯一标识符，0 表示无效实体
type EntityID uint64

// EntityManager 管理场景中的实体（角色、束缚带、挣脱门、火花等）及其组件
type EntityManager struct {
	nextID  EntityID
	entries map[EntityID]map[reflect.Type]any
	doomed  []EntityID
}

// NewEntityManager 创建空的实体存储
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:  1,
		entries: make(map[EntityID]map[reflect.Type]any),
	}
}

// CreateEntity 创建新实体并返回其 ID
func (em *EntityManager) CreateEntity() EntityID {
	id := em.nextID
	em.nextID++
	em.entries[id] = make(map[reflect.Type]any)
	return id
}

// DestroyEntity 标记实体待删除，RemoveMarkedEntities 时才真正移除
func (em *EntityManager) DestroyEntity(id EntityID) {
	em.doomed = append(em.doomed, id)
}

// EntityExists 已标记删除但尚未清理的实体仍视为存在
func (em *EntityManager) EntityExists(id EntityID) bool {
	_, ok := em.entries[id]
	return ok
}

// RemoveMarkedEntities 清理所有标记删除的实体
func (em *EntityManager) RemoveMarkedEntities() {
	for _, id := range em.doomed {
		delete(em.entries, id)
	}
	em.doomed = em.doomed[:0]
}

func (em *EntityManager) put(id EntityID, t reflect.Type, c any) {
	if comps, ok := em.entries[id]; ok {
		comps[t] = c
	}
}

func (em *EntityManager) lookup(id EntityID, t reflect.Type) (any, bool) {
	c, ok := em.entries[id][t]
	return c, ok
}

func (em *EntityManager) drop(id EntityID, t reflect.Type) {
	if comps, ok := em.entries[id]; ok {
		delete(comps, t)
	}
}

// query 返回拥有全部类型的实体，按 ID 升序，保证每帧处理顺序稳定
func (em *EntityManager) query(types ...reflect.Type) []EntityID {
	result := make([]EntityID, 0)
	for id, comps := range em.entries {
		matched := true
		for _, t := range types {
			if _, ok := comps[t]; !ok {
				matched = false
				break
			}
		}
		if matched {
			result = append(result, id)
		}
	}
	slices.Sort(result)
	return result
}
