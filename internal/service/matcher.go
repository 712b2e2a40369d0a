package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
	"github.com/saturnino-fabrica-de-software/facegate/internal/provider"
	"github.com/saturnino-fabrica-de-software/facegate/internal/repository"
	"github.com/saturnino-fabrica-de-software/facegate/internal/similarity"
)

// DefaultThreshold is the minimum cosine similarity accepted as a match
const DefaultThreshold = 0.5

// Matcher compares a live capture against the enrolled face
type Matcher struct {
	analyzer      provider.FaceAnalyzer
	extractor     provider.EmbeddingExtractor
	refExtractor  provider.EmbeddingExtractor
	store         repository.EnrollmentStore
	attempts      repository.MatchAttemptStore
	auditLogger   audit.Logger
	logger        *slog.Logger
	executor      Executor
	threshold     float64
	storedRef     bool
	providerLabel string
}

type MatcherOption func(*Matcher)

// WithThreshold sets the inclusive acceptance threshold
func WithThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.threshold = threshold
	}
}

func WithExecutor(executor Executor) MatcherOption {
	return func(m *Matcher) {
		m.executor = executor
	}
}

// WithReferenceExtractor embeds the enrolled image with a different
// extractor, typically a cached one
func WithReferenceExtractor(extractor provider.EmbeddingExtractor) MatcherOption {
	return func(m *Matcher) {
		m.refExtractor = extractor
	}
}

// WithStoredReference uses the embedding captured at enrollment when present
// instead of embedding the enrolled image again
func WithStoredReference(enabled bool) MatcherOption {
	return func(m *Matcher) {
		m.storedRef = enabled
	}
}

func WithAttemptStore(store repository.MatchAttemptStore) MatcherOption {
	return func(m *Matcher) {
		m.attempts = store
	}
}

func WithMatchAudit(logger audit.Logger) MatcherOption {
	return func(m *Matcher) {
		m.auditLogger = logger
	}
}

func WithLogger(logger *slog.Logger) MatcherOption {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// WithProviderLabel names the extractor in audit events
func WithProviderLabel(label string) MatcherOption {
	return func(m *Matcher) {
		m.providerLabel = label
	}
}

func NewMatcher(
	analyzer provider.FaceAnalyzer,
	extractor provider.EmbeddingExtractor,
	store repository.EnrollmentStore,
	opts ...MatcherOption,
) (*Matcher, error) {
	m := &Matcher{
		analyzer:  analyzer,
		extractor: extractor,
		store:     store,
		executor:  GoExecutor,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if math.IsNaN(m.threshold) || m.threshold < -1 || m.threshold > 1 {
		return nil, domain.ErrInvalidThreshold.WithError(fmt.Errorf("got %v", m.threshold))
	}
	if m.refExtractor == nil {
		m.refExtractor = m.extractor
	}
	if m.executor == nil {
		m.executor = GoExecutor
	}
	m.logger = m.logger.With("component", "matcher")

	return m, nil
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// PerformFaceMatching runs the pipeline for frame on the configured executor.
// The stream carries loading outcomes followed by exactly one terminal
// outcome and is then closed. A nil frame means nothing was captured.
// Cancelling ctx stops the pipeline and closes the stream without a
// terminal outcome.
func (m *Matcher) PerformFaceMatching(ctx context.Context, frame *Frame) <-chan domain.Outcome {
	out := make(chan domain.Outcome)

	m.executor(func() {
		defer close(out)
		start := time.Now()

		if frame == nil || len(frame.Image) == 0 {
			m.finish(ctx, out, start, domain.Failed(domain.MessageNoFaceToMatch, domain.ErrNoFaceToMatch), nil)
			return
		}

		for ev := range m.analyzer.Analyze(ctx, frame.Image) {
			switch ev.Status {
			case domain.AnalysisLoading:
				if !provider.Emit(ctx, out, domain.Loading()) {
					return
				}
			case domain.AnalysisError:
				// analyzers report their own cancellation as an error event
				if ctx.Err() != nil {
					return
				}
				m.finish(ctx, out, start, domain.Failed(analysisMessage(ev), analysisError(ev)), nil)
				return
			case domain.AnalysisSuccess:
				res, enrolledID := m.decide(ctx, ev.Face)
				if ctx.Err() != nil {
					return
				}
				m.finish(ctx, out, start, res, enrolledID)
				return
			}
		}

		// analyzer closed without a verdict
		if ctx.Err() == nil {
			m.finish(ctx, out, start, domain.Failed(domain.ErrAnalysisFailed.Message, domain.ErrAnalysisFailed), nil)
		}
	})

	return out
}

// Decide compares liveFace against the enrolled face and returns the
// typed decision with its score
func (m *Matcher) Decide(ctx context.Context, liveFace []byte) domain.MatchOutcome {
	res, _ := m.decide(ctx, liveFace)
	return res
}

func (m *Matcher) decide(ctx context.Context, liveFace []byte) (domain.MatchOutcome, *uuid.UUID) {
	enrolled, ok, err := m.store.Get(ctx)
	if err != nil {
		return domain.Failed(domain.ErrInternal.Message, domain.ErrInternal.WithError(fmt.Errorf("load enrolled face: %w", err))), nil
	}
	if !ok {
		return domain.Failed(domain.MessageNoFaceToMatch, domain.ErrNoFaceToMatch), nil
	}
	enrolledID := enrolled.ID

	reference, live, err := m.embeddings(ctx, enrolled, liveFace)
	if err != nil {
		return domain.Failed(domain.MessageOf(err, domain.ErrExtractionFailed.Message), err), &enrolledID
	}

	score, err := similarity.Cosine(reference, live)
	if err != nil {
		return domain.Failed(domain.MessageOf(err, domain.MessageUnknownError), err), &enrolledID
	}

	if score >= m.threshold {
		return domain.Matched(enrolled.Name, score), &enrolledID
	}
	return domain.NotMatched(score), &enrolledID
}

// embeddings extracts the reference and live embeddings concurrently
func (m *Matcher) embeddings(ctx context.Context, enrolled domain.EnrolledFace, liveFace []byte) (domain.Embedding, domain.Embedding, error) {
	var reference, live domain.Embedding

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if m.storedRef && !enrolled.Embedding.IsEmpty() {
			reference = enrolled.Embedding
			return nil
		}
		e, err := m.refExtractor.Embed(gctx, enrolled.Image)
		if err != nil {
			return extractionError("enrolled face", err)
		}
		reference = e
		return nil
	})

	g.Go(func() error {
		e, err := m.extractor.Embed(gctx, liveFace)
		if err != nil {
			return extractionError("live face", err)
		}
		live = e
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.Embedding{}, domain.Embedding{}, err
	}

	return reference, live, nil
}

func extractionError(which string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return fmt.Errorf("%s: %w", which, err)
	}
	return domain.ErrExtractionFailed.WithError(fmt.Errorf("%s: %w", which, err))
}

// finish records the decision and emits its terminal outcome. A cancelled
// match is neither recorded nor reported.
func (m *Matcher) finish(ctx context.Context, out chan<- domain.Outcome, start time.Time, res domain.MatchOutcome, enrolledID *uuid.UUID) {
	if ctx.Err() != nil {
		return
	}
	latency := time.Since(start)
	m.record(ctx, res, enrolledID, latency)
	provider.Emit(ctx, out, res.Outcome())
}

// record persists and audits an attempt. Failures are logged only; they
// never change the outcome.
func (m *Matcher) record(ctx context.Context, res domain.MatchOutcome, enrolledID *uuid.UUID, latency time.Duration) {
	attrs := []any{
		slog.String("result", string(res.Kind)),
		slog.Int64("latency_ms", latency.Milliseconds()),
	}
	if res.Score != nil {
		attrs = append(attrs, slog.Float64("score", *res.Score))
	}
	if res.Err != nil {
		attrs = append(attrs, slog.String("error", res.Err.Error()))
	}
	m.logger.InfoContext(ctx, "match decided", attrs...)

	if m.attempts != nil {
		attempt := &domain.MatchAttempt{
			EnrolledFaceID: enrolledID,
			Result:         res.Kind,
			Identity:       res.Identity,
			Reason:         res.Reason,
			Score:          res.Score,
			Threshold:      m.threshold,
			LatencyMs:      latency.Milliseconds(),
		}
		if err := m.attempts.Create(ctx, attempt); err != nil {
			m.logger.WarnContext(ctx, "failed to record match attempt", slog.String("error", err.Error()))
		}
	}

	if m.auditLogger != nil {
		event := audit.Event{
			EventType: audit.EventFaceMatched,
			Provider:  m.providerLabel,
			Success:   res.Kind != domain.MatchFailed,
			IPAddress: audit.IPAddressFrom(ctx),
			Metadata: map[string]string{
				"result":    string(res.Kind),
				"threshold": fmt.Sprintf("%.4f", m.threshold),
			},
		}
		if enrolledID != nil {
			event.EnrollmentID = enrolledID.String()
		}
		if res.Score != nil {
			event.Metadata["score"] = fmt.Sprintf("%.4f", *res.Score)
		}
		if res.Err != nil {
			event.Error = res.Err.Error()
		}
		_ = m.auditLogger.Log(ctx, event)
	}
}

// RecentAttempts returns the latest recorded decisions, newest first
func (m *Matcher) RecentAttempts(ctx context.Context, limit int) ([]domain.MatchAttempt, error) {
	if m.attempts == nil {
		return []domain.MatchAttempt{}, nil
	}
	attempts, err := m.attempts.Recent(ctx, limit)
	if err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("list match attempts: %w", err))
	}
	return attempts, nil
}
