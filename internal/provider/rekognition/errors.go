package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrThrottled indicates that AWS rejected the call because of request rate
	ErrThrottled = errors.New("rekognition request throttled")

	// ErrImageRejected indicates that Rekognition could not process the image bytes
	ErrImageRejected = errors.New("image rejected by rekognition")
)
