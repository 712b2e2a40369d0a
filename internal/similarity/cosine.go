package similarity

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// Cosine calculates the cosine similarity between two embeddings.
// Returns a value between -1.0 (opposite) and 1.0 (identical).
//
// Embeddings must have the same non-zero length and non-zero magnitude;
// otherwise ErrDimensionMismatch or ErrZeroMagnitude is returned instead of
// a NaN or infinite score.
func Cosine(a, b domain.Embedding) (float64, error) {
	if a.Len() != b.Len() {
		return 0, domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("length %d != %d", a.Len(), b.Len()))
	}
	if a.Len() == 0 {
		return 0, domain.ErrDimensionMismatch.WithError(fmt.Errorf("empty embeddings"))
	}

	var dotProduct, norm1, norm2 float64
	for i := 0; i < a.Len(); i++ {
		x, y := a.At(i), b.At(i)
		if !isFinite(x) || !isFinite(y) {
			return 0, domain.ErrNonFiniteValue.WithError(fmt.Errorf("index %d", i))
		}
		dotProduct += x * y
		norm1 += x * x
		norm2 += y * y
	}

	if norm1 == 0 || norm2 == 0 {
		return 0, domain.ErrZeroMagnitude
	}

	score := dotProduct / (math.Sqrt(norm1) * math.Sqrt(norm2))
	if !isFinite(score) {
		// overflow in the sums of squares
		return 0, domain.ErrNonFiniteValue.WithError(fmt.Errorf("score overflow"))
	}

	return clamp(score), nil
}

// CosineSlices is Cosine for raw vectors
func CosineSlices(a, b []float64) (float64, error) {
	return Cosine(domain.NewEmbedding(a), domain.NewEmbedding(b))
}

// Normalize returns a unit-length copy of the embedding
func Normalize(e domain.Embedding) (domain.Embedding, error) {
	if e.IsEmpty() {
		return domain.Embedding{}, domain.ErrDimensionMismatch.WithError(fmt.Errorf("empty embedding"))
	}

	values := e.Values()

	var norm float64
	for _, v := range values {
		if !isFinite(v) {
			return domain.Embedding{}, domain.ErrNonFiniteValue
		}
		norm += v * v
	}

	if norm == 0 {
		return domain.Embedding{}, domain.ErrZeroMagnitude
	}

	norm = math.Sqrt(norm)
	for i, v := range values {
		values[i] = v / norm
	}

	return domain.NewEmbedding(values), nil
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
