// Package store holds discount codes in memory. The discount catalog is tiny
// and effectively static, so a mutex-guarded map is the whole storage layer.
package store

import (
	"errors"
	"sync"
)

var ErrDiscountNotFound = errors.New("discount not found")

type Discount struct {
	ID     int64
	Code   string
	Amount float64
}

type MemoryStore struct {
	mu        sync.RWMutex
	discounts map[string]Discount
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		discounts: make(map[string]Discount),
		nextID:    1,
	}
}

// NewSeededStore returns a store preloaded with the standard demo codes.
func NewSeededStore() *MemoryStore {
	s := NewMemoryStore()
	s.Put("CODE_100", 100)
	s.Put("CODE_50", 50)
	s.Put("CODE_40", 40)
	return s
}

func (s *MemoryStore) Get(code string) (Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.discounts[code]
	if !ok {
		return Discount{}, ErrDiscountNotFound
	}
	return d, nil
}

func (s *MemoryStore) Put(code string, amount float64) Discount {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.discounts[code]
	if !ok {
		d = Discount{ID: s.nextID, Code: code}
		s.nextID++
	}
	d.Amount = amount
	s.discounts[code] = d
	return d
}
