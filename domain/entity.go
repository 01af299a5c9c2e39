// Package domain 提供领域模型的基础构件: 实体标识、领域事件与事件总线.
package domain

import "reflect"

// Entity 实体基类，以 ID 作为唯一标识.
//
// 零值 ID 表示尚未持久化的实体.
type Entity[ID comparable] struct {
	id ID
}

// NewEntity 创建带标识的实体.
func NewEntity[ID comparable](id ID) Entity[ID] {
	return Entity[ID]{id: id}
}

// ID 返回实体标识.
func (e *Entity[ID]) ID() ID { return e.id }

// AssignID 由仓储在持久化时写入存储生成的标识.
func (e *Entity[ID]) AssignID(id ID) { e.id = id }

// IsTransient 报告实体是否尚未持久化.
func (e *Entity[ID]) IsTransient() bool {
	var zero ID
	return e.id == zero
}

// Identifiable 具有标识的对象.
type Identifiable[ID comparable] interface {
	ID() ID
	IsTransient() bool
}

// SameIdentity 判断两个实体是否相等: 具体类型相同且标识相同.
//
// 尚未持久化的实体只与自身相等，nil 与带类型的 nil 指针都视为空.
func SameIdentity[ID comparable](a, b Identifiable[ID]) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if a.IsTransient() || b.IsTransient() {
		return any(a) == any(b)
	}
	return a.ID() == b.ID()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
