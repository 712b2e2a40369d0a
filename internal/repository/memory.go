package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// MemoryEnrollmentStore keeps the enrollment in process memory
type MemoryEnrollmentStore struct {
	mu   sync.RWMutex
	face *domain.EnrolledFace
}

func NewMemoryEnrollmentStore() *MemoryEnrollmentStore {
	return &MemoryEnrollmentStore{}
}

func (s *MemoryEnrollmentStore) Get(_ context.Context) (domain.EnrolledFace, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.face == nil {
		return domain.EnrolledFace{}, false, nil
	}
	return cloneFace(*s.face), true, nil
}

func (s *MemoryEnrollmentStore) Save(_ context.Context, face *domain.EnrolledFace) error {
	if face.ID == uuid.Nil {
		face.ID = uuid.New()
	}
	now := time.Now().UTC()
	face.CreatedAt = now
	face.UpdatedAt = now

	stored := cloneFace(*face)

	s.mu.Lock()
	s.face = &stored
	s.mu.Unlock()

	return nil
}

func (s *MemoryEnrollmentStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.face == nil {
		return domain.ErrEnrollmentNotFound
	}
	s.face = nil
	return nil
}

func (s *MemoryEnrollmentStore) Ping(_ context.Context) error {
	return nil
}

// cloneFace copies the image so callers never share the stored bytes.
// Embedding is immutable and safe to share.
func cloneFace(f domain.EnrolledFace) domain.EnrolledFace {
	if f.Image != nil {
		img := make([]byte, len(f.Image))
		copy(img, f.Image)
		f.Image = img
	}
	return f
}

// MemoryMatchAttemptStore keeps the most recent attempts in a bounded ring
type MemoryMatchAttemptStore struct {
	mu       sync.Mutex
	attempts []domain.MatchAttempt
	capacity int
}

func NewMemoryMatchAttemptStore(capacity int) *MemoryMatchAttemptStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryMatchAttemptStore{capacity: capacity}
}

func (s *MemoryMatchAttemptStore) Create(_ context.Context, a *domain.MatchAttempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts = append(s.attempts, *a)
	if len(s.attempts) > s.capacity {
		s.attempts = s.attempts[len(s.attempts)-s.capacity:]
	}
	return nil
}

func (s *MemoryMatchAttemptStore) Recent(_ context.Context, limit int) ([]domain.MatchAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.attempts) {
		limit = len(s.attempts)
	}

	out := make([]domain.MatchAttempt, 0, limit)
	for i := len(s.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.attempts[i])
	}
	return out, nil
}

var (
	_ EnrollmentStore   = (*MemoryEnrollmentStore)(nil)
	_ MatchAttemptStore = (*MemoryMatchAttemptStore)(nil)
)
