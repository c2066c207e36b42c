package queue

import "sync/atomic"

// IDAllocator выдаёт уникальные, строго возрастающие идентификаторы
// заказов. Единственное общее изменяемое состояние — атомарный счётчик.
type IDAllocator struct {
	next atomic.Uint64
}

// NewIDAllocator создаёт аллокатор, начинающий с base.
func NewIDAllocator(base uint64) *IDAllocator {
	a := &IDAllocator{}
	a.next.Store(base)
	return a
}

// Next возвращает следующий идентификатор. Безопасен при любом числе
// конкурентных вызовов; значения никогда не повторяются.
func (a *IDAllocator) Next() uint64 {
	return a.next.Add(1) - 1
}
