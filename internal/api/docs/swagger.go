package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// EnrollmentResponse describes the enrolled reference face
type EnrollmentResponse struct {
	ID           string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name         string `json:"name" example:"Alice"`
	ContentType  string `json:"content_type" example:"image/jpeg"`
	EmbeddingDim int    `json:"embedding_dim" example:"512"`
	CreatedAt    string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt    string `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// OutcomeResponse is one line of the match stream
type OutcomeResponse struct {
	Status   string `json:"status" example:"success"`
	Identity string `json:"identity,omitempty" example:"Alice"`
	Message  string `json:"message,omitempty" example:"No face found"`
	Code     string `json:"code,omitempty" example:"NO_FACE_TO_MATCH"`
}

// MatchAttemptResponse is one recorded match decision
type MatchAttemptResponse struct {
	ID           string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	EnrollmentID string   `json:"enrolled_face_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440000"`
	Result       string   `json:"result" example:"matched"`
	Identity     string   `json:"identity,omitempty" example:"Alice"`
	Score        *float64 `json:"score,omitempty" example:"0.87"`
	Threshold    float64  `json:"threshold" example:"0.5"`
	Reason       string   `json:"reason,omitempty" example:""`
	LatencyMs    int64    `json:"latency_ms" example:"120"`
	CreatedAt    string   `json:"created_at" example:"2024-01-01T00:00:00Z"`
}

// AttemptsResponse lists recent match decisions, newest first
type AttemptsResponse struct {
	Attempts []MatchAttemptResponse `json:"attempts"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

func internalError() response.Response {
	return response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
}

func rateLimited() response.Response {
	return response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Too many requests"}, "429", "Too Many Requests")
}

// NewSwagger creates the API documentation served at /swagger
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Facegate Face Matching API",
		Version:     "v1.0.0",
		Description: "Single-enrollment face matching: enroll one reference face, then match live camera frames against it",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// PUT /v1/enrollment
		endpoint.New(
			endpoint.PUT,
			"/enrollment",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Enroll the reference face"),
			endpoint.WithDescription("Replaces the enrolled face. Form fields: name (1-255 characters) and image (jpeg, png, webp or bmp, max 10MB). The photo must contain exactly one face."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollmentResponse{}, "200", "Face enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid or corrupted image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected in image"}, "422", "Unprocessable Entity"),
				rateLimited(),
				internalError(),
			}),
		),

		// GET /v1/enrollment
		endpoint.New(
			endpoint.GET,
			"/enrollment",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Get the enrolled face"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollmentResponse{}, "200", "Enrolled face"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "ENROLLMENT_NOT_FOUND", Message: "No face is enrolled"}, "404", "Not Found"),
				internalError(),
			}),
		),

		// GET /v1/enrollment/image
		endpoint.New(
			endpoint.GET,
			"/enrollment/image",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Download the enrolled face crop"),
			endpoint.WithProduce([]mime.MIME{mime.MIME("image/jpeg")}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "ENROLLMENT_NOT_FOUND", Message: "No face is enrolled"}, "404", "Not Found"),
				internalError(),
			}),
		),

		// DELETE /v1/enrollment
		endpoint.New(
			endpoint.DELETE,
			"/enrollment",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Remove the enrolled face"),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Enrollment removed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "ENROLLMENT_NOT_FOUND", Message: "No face is enrolled"}, "404", "Not Found"),
				internalError(),
			}),
		),

		// POST /v1/match
		endpoint.New(
			endpoint.POST,
			"/match",
			endpoint.WithTags("Match"),
			endpoint.WithSummary("Match a frame against the enrolled face"),
			endpoint.WithDescription("Streams newline-delimited outcomes: zero or more {\"status\":\"loading\"} lines, then one success or error line. The image form field is optional; without it the outcome is \"No face to match\"."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.MIME("application/x-ndjson"), mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("stream", parameter.Query, parameter.WithDescription("Set to false to receive only the final outcome as a JSON object")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(OutcomeResponse{}, "200", "Outcome stream"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid or corrupted image"}, "422", "Unprocessable Entity"),
				rateLimited(),
			}),
		),

		// GET /v1/match/attempts
		endpoint.New(
			endpoint.GET,
			"/match/attempts",
			endpoint.WithTags("Match"),
			endpoint.WithSummary("List recent match decisions"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of attempts (1-500, default: 50)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttemptsResponse{}, "200", "Recent attempts"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "limit must be between 1 and 500"}, "422", "Unprocessable Entity"),
				internalError(),
			}),
		),

		// GET /v1/match/ws
		endpoint.New(
			endpoint.GET,
			"/match/ws",
			endpoint.WithTags("Match"),
			endpoint.WithSummary("Live matching over a WebSocket"),
			endpoint.WithDescription("Each binary message is a camera frame (empty means nothing captured). The server replies with match.outcome events tagged with the frame sequence number; a newer frame cancels the match still running for the previous one. Enrollment changes are pushed as enrollment.updated and enrollment.removed."),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
