package devstore

import (
	"sync"
	"time"

	"crease/internal/booking"
)

type bookingStore struct {
	mu     sync.RWMutex
	nextID int64
	byPub  map[string]*Booking
}

func newBookingStore() *bookingStore {
	return &bookingStore{nextID: 1, byPub: map[string]*Booking{}}
}

func (s *bookingStore) Create(b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPub[b.PublicID]; ok {
		return ErrConflict
	}
	b.ID = s.nextID
	s.nextID++
	s.byPub[b.PublicID] = b
	return nil
}

func (s *bookingStore) GetByPublicID(publicID string) (*Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byPub[publicID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// CreateIfAvailable recounts the window's holders and inserts in one
// critical section, so two racing creates cannot both take the last unit.
func (s *bookingStore) CreateIfAvailable(b *Booking, units int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPub[b.PublicID]; ok {
		return ErrConflict
	}
	if s.countHolding(b.Resource, b.StartTime, now) >= units {
		return ErrSlotTaken
	}
	b.ID = s.nextID
	s.nextID++
	s.byPub[b.PublicID] = b
	return nil
}

func (s *bookingStore) CountHolding(resource booking.ResourceType, start time.Time, now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countHolding(resource, start, now)
}

// countHolding requires s.mu held.
func (s *bookingStore) countHolding(resource booking.ResourceType, start time.Time, now time.Time) int {
	n := 0
	for _, b := range s.byPub {
		if b.Resource != resource || !b.StartTime.Equal(start) {
			continue
		}
		switch b.Status {
		case booking.StatusConfirmed:
			n++
		case booking.StatusPendingPayment:
			if b.ExpiresAt.After(now) {
				n++
			}
		}
	}
	return n
}

func (s *bookingStore) SetStatus(publicID string, status booking.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byPub[publicID]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	return nil
}

func (s *bookingStore) ExpireOverdue(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.byPub {
		if b.Status == booking.StatusPendingPayment && !b.ExpiresAt.After(now) {
			b.Status = booking.StatusExpired
			n++
		}
	}
	return n
}

type orderStore struct {
	mu   sync.RWMutex
	byID map[string]*Order
}

func newOrderStore() *orderStore {
	return &orderStore{byID: map[string]*Order{}}
}

func (s *orderStore) Create(o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[o.ID]; ok {
		return ErrConflict
	}
	s.byID[o.ID] = o
	return nil
}

func (s *orderStore) Get(id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

type templateStore struct {
	mu  sync.RWMutex
	all map[booking.ResourceType]SlotTemplate
}

func newTemplateStore() *templateStore {
	return &templateStore{all: map[booking.ResourceType]SlotTemplate{}}
}

func (s *templateStore) For(resource booking.ResourceType) (SlotTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.all[resource]
	return t, ok
}

func (s *templateStore) Put(t SlotTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.all[t.Resource] = t
}
