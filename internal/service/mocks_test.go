package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
)

type MockAnalyzer struct {
	mock.Mock
}

// Analyze replays the scripted events, stopping early when ctx is done
func (m *MockAnalyzer) Analyze(ctx context.Context, frame []byte) <-chan domain.AnalysisEvent {
	args := m.Called(ctx, frame)
	events := args.Get(0).([]domain.AnalysisEvent)

	out := make(chan domain.AnalysisEvent)
	go func() {
		defer close(out)
		for _, ev := range events {
			if !provider.Emit(ctx, out, ev) {
				return
			}
		}
	}()
	return out
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Embed(ctx context.Context, image []byte) (domain.Embedding, error) {
	args := m.Called(ctx, image)
	return args.Get(0).(domain.Embedding), args.Error(1)
}

type MockEnrollmentStore struct {
	mock.Mock
}

func (m *MockEnrollmentStore) Get(ctx context.Context) (domain.EnrolledFace, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.EnrolledFace), args.Bool(1), args.Error(2)
}

func (m *MockEnrollmentStore) Save(ctx context.Context, face *domain.EnrolledFace) error {
	args := m.Called(ctx, face)
	return args.Error(0)
}

func (m *MockEnrollmentStore) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEnrollmentStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockAttemptStore struct {
	mock.Mock
}

func (m *MockAttemptStore) Create(ctx context.Context, attempt *domain.MatchAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptStore) Recent(ctx context.Context, limit int) ([]domain.MatchAttempt, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchAttempt), args.Error(1)
}

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingAudit) Events() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Event(nil), r.events...)
}

func collect(ch <-chan domain.Outcome) []domain.Outcome {
	var outcomes []domain.Outcome
	for o := range ch {
		outcomes = append(outcomes, o)
	}
	return outcomes
}
