package deepface

import "errors"

var (
	// ErrDeepFaceUnavailable wraps the last failure once retries are exhausted
	ErrDeepFaceUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")

	ErrNoFaceInResponse = errors.New("no face data in deepface response")
	ErrEmptyEmbedding   = errors.New("empty embedding in deepface response")
)
