package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchOutcome_Outcome(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name    string
		outcome MatchOutcome
		want    Outcome
	}{
		{
			name:    "matched maps to success with identity",
			outcome: Matched("alice", 0.93),
			want:    Outcome{Status: OutcomeSuccess, Identity: "alice"},
		},
		{
			name:    "not matched maps to no face found",
			outcome: NotMatched(0.12),
			want:    Outcome{Status: OutcomeError, Message: MessageNoFaceFound},
		},
		{
			name:    "failed keeps reason and cause",
			outcome: Failed("Embedding has zero magnitude", cause),
			want:    Outcome{Status: OutcomeError, Message: "Embedding has zero magnitude", Err: cause},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.Outcome())
		})
	}
}

func TestMatchOutcome_Score(t *testing.T) {
	m := Matched("bob", 0.5)
	require.NotNil(t, m.Score)
	assert.Equal(t, 0.5, *m.Score)

	f := Failed("x", nil)
	assert.Nil(t, f.Score)
}

func TestOutcome_IsTerminal(t *testing.T) {
	assert.False(t, Loading().IsTerminal())
	assert.True(t, Success("x").IsTerminal())
	assert.True(t, Failure("x", nil).IsTerminal())
}

func TestEmbedding_Immutable(t *testing.T) {
	src := []float64{1, 2, 3}
	e := NewEmbedding(src)

	src[0] = 99
	assert.Equal(t, 1.0, e.At(0), "mutating the source must not affect the embedding")

	out := e.Values()
	out[1] = 42
	assert.Equal(t, 2.0, e.At(1), "mutating Values() must not affect the embedding")

	assert.Equal(t, 3, e.Len())
	assert.False(t, e.IsEmpty())
	assert.True(t, NewEmbedding(nil).IsEmpty())
	assert.Nil(t, NewEmbedding(nil).Values())
}
