package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
)

// Memory — хранилище в памяти, для демо-режима и тестов
type Memory struct {
	mu      sync.RWMutex
	members map[uuid.UUID]models.Member
}

func NewMemory() *Memory {
	return &Memory{members: make(map[uuid.UUID]models.Member)}
}

func (s *Memory) Close() {}

func (s *Memory) CreateMember(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(m.Email, m.ID) {
		return ErrDuplicateEmail
	}
	s.members[m.ID] = clone(*m)
	return nil
}

func (s *Memory) GetMember(_ context.Context, id uuid.UUID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(m)
	return &out, nil
}

func (s *Memory) ListMembers(_ context.Context) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, clone(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Memory) UpdateMember(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.members[m.ID]
	if !ok {
		return ErrNotFound
	}
	if s.emailTaken(m.Email, m.ID) {
		return ErrDuplicateEmail
	}

	cur.Name = m.Name
	cur.Email = m.Email
	cur.Role = m.Role
	cur.Subscription = m.Subscription
	s.members[m.ID] = clone(cur)
	return nil
}

func (s *Memory) UpdateProfile(_ context.Context, id uuid.UUID, p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return ErrNotFound
	}
	m.Profile = p
	s.members[id] = clone(m)
	return nil
}

func (s *Memory) RenewSubscription(_ context.Context, memberID uuid.UUID, endDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok || m.Subscription == nil {
		return ErrNotFound
	}
	m.Subscription.EndDate = endDate
	s.members[memberID] = m
	return nil
}

func (s *Memory) DeleteMember(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[id]; !ok {
		return ErrNotFound
	}
	delete(s.members, id)
	return nil
}

func (s *Memory) TotalCost(_ context.Context, date time.Time, f TotalCostFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, m := range s.members {
		sub := m.Subscription
		if sub == nil || date.Before(sub.StartDate) || date.After(sub.EndDate) {
			continue
		}
		if f.MemberID != nil && m.ID != *f.MemberID {
			continue
		}
		if f.Category != "" && sub.Category != f.Category {
			continue
		}
		total += sub.Price
	}
	return total, nil
}

// emailTaken вызывается под блокировкой; регистр не учитывается, как в индексе members_email_lower_idx
func (s *Memory) emailTaken(email string, except uuid.UUID) bool {
	for id, m := range s.members {
		if id != except && strings.EqualFold(m.Email, email) {
			return true
		}
	}
	return false
}

func clone(m models.Member) models.Member {
	if m.Subscription != nil {
		sub := *m.Subscription
		m.Subscription = &sub
	}
	return m
}
