package shared

// AggregateRoot 聚合根接口
// 聚合根维护聚合的一致性边界，所有修改必须通过聚合根进行，并负责记录领域事件。
type AggregateRoot interface {
	// ID 返回聚合根的全局唯一标识
	ID() string

	// PullEvents 获取并清空聚合根记录的领域事件
	PullEvents() []DomainEvent
}

// Entity 实体接口：通过标识判断相等性
type Entity interface {
	ID() string
}

// EventRecorder 可嵌入聚合根，提供事件记录与提取
type EventRecorder struct {
	events []DomainEvent
}

// Record 记录一个领域事件
func (r *EventRecorder) Record(event DomainEvent) {
	r.events = append(r.events, event)
}

// PullEvents 获取并清空事件列表，避免 UoW 重复保存
func (r *EventRecorder) PullEvents() []DomainEvent {
	events := r.events
	r.events = nil
	return events
}
