package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

const tolerance = 1e-9

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float64
		want    float64
		wantErr error
	}{
		{
			name: "identical vectors",
			a:    []float64{1, 0, 0, 0},
			b:    []float64{1, 0, 0, 0},
			want: 1.0,
		},
		{
			name: "orthogonal vectors",
			a:    []float64{1, 0, 0, 0},
			b:    []float64{0, 1, 0, 0},
			want: 0.0,
		},
		{
			name: "opposite vectors",
			a:    []float64{0.3, -0.4, 0.5},
			b:    []float64{-0.3, 0.4, -0.5},
			want: -1.0,
		},
		{
			name: "scaled vectors are identical",
			a:    []float64{1, 2, 3},
			b:    []float64{2, 4, 6},
			want: 1.0,
		},
		{
			name: "sixty degrees",
			a:    []float64{1, 0},
			b:    []float64{0.5, math.Sqrt(3) / 2},
			want: 0.5,
		},
		{
			name:    "dimension mismatch",
			a:       []float64{1, 0, 0},
			b:       []float64{1, 0, 0, 0},
			wantErr: domain.ErrDimensionMismatch,
		},
		{
			name:    "empty vectors",
			a:       []float64{},
			b:       []float64{},
			wantErr: domain.ErrDimensionMismatch,
		},
		{
			name:    "zero magnitude left",
			a:       []float64{0, 0, 0},
			b:       []float64{1, 2, 3},
			wantErr: domain.ErrZeroMagnitude,
		},
		{
			name:    "zero magnitude right",
			a:       []float64{1, 2, 3},
			b:       []float64{0, 0, 0},
			wantErr: domain.ErrZeroMagnitude,
		},
		{
			name:    "both zero",
			a:       []float64{0, 0},
			b:       []float64{0, 0},
			wantErr: domain.ErrZeroMagnitude,
		},
		{
			name:    "NaN component",
			a:       []float64{math.NaN(), 1},
			b:       []float64{1, 1},
			wantErr: domain.ErrNonFiniteValue,
		},
		{
			name:    "infinite component",
			a:       []float64{1, 1},
			b:       []float64{math.Inf(1), 1},
			wantErr: domain.ErrNonFiniteValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSlices(tt.a, tt.b)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, math.IsNaN(got))
				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tolerance)
		})
	}
}

func TestCosine_Symmetry(t *testing.T) {
	pairs := [][2][]float64{
		{{0.1, 0.2, 0.3}, {0.3, 0.2, 0.1}},
		{{-1, 5, 2.5, 0}, {3, -0.5, 1, 7}},
		{{1e-3, 1e3}, {1e3, 1e-3}},
	}

	for _, p := range pairs {
		ab, err := CosineSlices(p[0], p[1])
		require.NoError(t, err)
		ba, err := CosineSlices(p[1], p[0])
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, tolerance)
	}
}

func TestCosine_SelfSimilarity(t *testing.T) {
	vectors := [][]float64{
		{1, 0, 0, 0},
		{0.12, -0.7, 3.3},
		{-5, -5, -5, -5, -5},
	}

	for _, v := range vectors {
		got, err := CosineSlices(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, tolerance)
	}
}

func TestCosine_Clamped(t *testing.T) {
	v := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}

	got, err := CosineSlices(v, v)
	require.NoError(t, err)
	assert.LessOrEqual(t, got, 1.0)

	neg := []float64{-0.1, -0.1, -0.1, -0.1, -0.1, -0.1, -0.1}
	got, err = CosineSlices(v, neg)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, -1.0)
}

func TestNormalize(t *testing.T) {
	e, err := Normalize(domain.NewEmbedding([]float64{3, 4}))
	require.NoError(t, err)
	assert.InDelta(t, 0.6, e.At(0), tolerance)
	assert.InDelta(t, 0.8, e.At(1), tolerance)

	_, err = Normalize(domain.NewEmbedding([]float64{0, 0}))
	assert.ErrorIs(t, err, domain.ErrZeroMagnitude)

	_, err = Normalize(domain.Embedding{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func BenchmarkCosine512(b *testing.B) {
	a := make([]float64, 512)
	c := make([]float64, 512)
	for i := range a {
		a[i] = float64(i%7) - 3
		c[i] = float64(i%5) - 2
	}
	ea, ec := domain.NewEmbedding(a), domain.NewEmbedding(c)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Cosine(ea, ec)
	}
}
