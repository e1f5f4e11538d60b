package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]User
	plans     map[string]Plan
	members   map[string][]Member // by plan id, in join order
	snapshots map[string][]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]User),
		plans:     make(map[string]Plan),
		members:   make(map[string][]Member),
		snapshots: make(map[string][]Snapshot),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) CreatePlan(_ context.Context, p Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[p.ID]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	s.plans[p.ID] = p
	s.members[p.ID] = []Member{s.member(p.ID, p.OwnerID, RoleOwner)}
	return nil
}

func (s *MemoryStore) GetPlan(_ context.Context, id string) (Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return Plan{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) ListPlansForUser(_ context.Context, userID string) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plans := []Plan{}
	for planID, members := range s.members {
		for _, m := range members {
			if m.UserID == userID {
				plans = append(plans, s.plans[planID])
				break
			}
		}
	}
	slices.SortFunc(plans, func(a, b Plan) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return plans, nil
}

func (s *MemoryStore) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return ErrNotFound
	}
	delete(s.plans, id)
	delete(s.members, id)
	delete(s.snapshots, id)
	return nil
}

func (s *MemoryStore) AddMember(_ context.Context, planID, userID string, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[planID]; !ok {
		return ErrNotFound
	}
	for _, m := range s.members[planID] {
		if m.UserID == userID {
			return ErrDuplicate
		}
	}
	s.members[planID] = append(s.members[planID], s.member(planID, userID, role))
	return nil
}

func (s *MemoryStore) GetMember(_ context.Context, planID, userID string) (Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.members[planID] {
		if m.UserID == userID {
			return m, nil
		}
	}
	return Member{}, ErrNotFound
}

func (s *MemoryStore) ListMembers(_ context.Context, planID string) ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.members[planID]), nil
}

func (s *MemoryStore) CreateSnapshot(_ context.Context, id, planID string, doc []byte) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[planID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	now := time.Now().UTC()
	snap := Snapshot{
		ID:        id,
		PlanID:    planID,
		Version:   len(s.snapshots[planID]) + 1,
		Document:  slices.Clone(doc),
		CreatedAt: now,
	}
	s.snapshots[planID] = append(s.snapshots[planID], snap)
	p.UpdatedAt = now
	s.plans[planID] = p
	return snap, nil
}

func (s *MemoryStore) GetLatestSnapshot(_ context.Context, planID string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snaps := s.snapshots[planID]
	if len(snaps) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return snaps[len(snaps)-1], nil
}

// member must be called with mu held.
func (s *MemoryStore) member(planID, userID string, role Role) Member {
	u := s.users[userID]
	return Member{
		PlanID:      planID,
		UserID:      userID,
		Role:        role,
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
)
