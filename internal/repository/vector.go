package repository

import (
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/facegate/internal/domain"
)

// toVector converts an embedding for a pgvector column; empty maps to NULL
func toVector(e domain.Embedding) *pgvector.Vector {
	if e.IsEmpty() {
		return nil
	}
	floats := make([]float32, e.Len())
	for i := range floats {
		floats[i] = float32(e.At(i))
	}
	vec := pgvector.NewVector(floats)
	return &vec
}

func fromVector(v *pgvector.Vector) domain.Embedding {
	if v == nil || len(v.Slice()) == 0 {
		return domain.Embedding{}
	}
	values := make([]float64, len(v.Slice()))
	for i, f := range v.Slice() {
		values[i] = float64(f)
	}
	return domain.NewEmbedding(values)
}
