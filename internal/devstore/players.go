package devstore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/speps/go-hashids/v2"
)

type playerStore struct {
	mu      sync.RWMutex
	nextID  int64
	byEmail map[string]*Player
	byPub   map[string]*Player
	hasher  *hashids.HashID
}

func newPlayerStore(salt string) *playerStore {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 8
	h, _ := hashids.NewWithData(hd)
	return &playerStore{
		nextID:  1,
		byEmail: map[string]*Player{},
		byPub:   map[string]*Player{},
		hasher:  h,
	}
}

func (s *playerStore) Create(name, email string, passwordHash []byte) (*Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.byEmail[email]; ok {
		return nil, ErrConflict
	}

	id := s.nextID
	s.nextID++
	pub, err := s.hasher.EncodeInt64([]int64{id})
	if err != nil {
		return nil, fmt.Errorf("encode player public id: %w", err)
	}

	p := &Player{
		ID:           id,
		PublicID:     "plr_" + pub,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	s.byEmail[email] = p
	s.byPub[p.PublicID] = p
	return p, nil
}

func (s *playerStore) GetByEmail(email string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *playerStore) GetByPublicID(publicID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byPub[publicID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}
