// Package keylock выдает мьютекс по строковому ключу из фиксированного
// набора: один и тот же ключ всегда получает один и тот же мьютекс,
// а память не растет с числом ключей.
package keylock

import (
	"hash/fnv"
	"sync"
)

// DefaultStripes число мьютексов по умолчанию.
const DefaultStripes = 256

// Striped набор мьютексов, разделенный по хэшу ключа.
type Striped struct {
	locks []sync.Mutex
}

// New создает набор из n мьютексов. n <= 0 означает DefaultStripes.
func New(n int) *Striped {
	if n <= 0 {
		n = DefaultStripes
	}
	return &Striped{locks: make([]sync.Mutex, n)}
}

// For возвращает мьютекс ключа.
func (s *Striped) For(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.locks[h.Sum32()%uint32(len(s.locks))]
}
