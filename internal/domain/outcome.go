package domain

// Messages surfaced to callers of the matching pipeline
const (
	MessageNoFaceToMatch = "No face to match"
	MessageNoFaceFound   = "No face found"
	MessageUnknownError  = "Unknown error"
)

// OutcomeStatus is the state carried by each element of a match stream
type OutcomeStatus string

const (
	OutcomeLoading OutcomeStatus = "loading"
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// Outcome is one element of the stream produced by a match invocation.
// Loading outcomes precede exactly one terminal Success or Error.
type Outcome struct {
	Status   OutcomeStatus `json:"status"`
	Identity string        `json:"identity,omitempty"`
	Message  string        `json:"message,omitempty"`
	Err      error         `json:"-"`
}

func Loading() Outcome {
	return Outcome{Status: OutcomeLoading}
}

func Success(identity string) Outcome {
	return Outcome{Status: OutcomeSuccess, Identity: identity}
}

func Failure(message string, err error) Outcome {
	return Outcome{Status: OutcomeError, Message: message, Err: err}
}

// IsTerminal reports whether the outcome ends an invocation
func (o Outcome) IsTerminal() bool {
	return o.Status != OutcomeLoading
}

// MatchKind tags the three possible decisions
type MatchKind string

const (
	MatchMatched    MatchKind = "matched"
	MatchNotMatched MatchKind = "not_matched"
	MatchFailed     MatchKind = "failed"
)

// MatchOutcome is the typed decision for a single comparison
type MatchOutcome struct {
	Kind     MatchKind `json:"kind"`
	Identity string    `json:"identity,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Score    *float64  `json:"score,omitempty"`
	Err      error     `json:"-"`
}

func Matched(identity string, score float64) MatchOutcome {
	return MatchOutcome{Kind: MatchMatched, Identity: identity, Score: &score}
}

func NotMatched(score float64) MatchOutcome {
	return MatchOutcome{Kind: MatchNotMatched, Reason: MessageNoFaceFound, Score: &score}
}

func Failed(reason string, err error) MatchOutcome {
	return MatchOutcome{Kind: MatchFailed, Reason: reason, Err: err}
}

// Outcome maps the decision onto the stream representation.
// NotMatched is reported as an error carrying "No face found".
func (m MatchOutcome) Outcome() Outcome {
	switch m.Kind {
	case MatchMatched:
		return Success(m.Identity)
	case MatchNotMatched:
		return Failure(MessageNoFaceFound, nil)
	default:
		return Failure(m.Reason, m.Err)
	}
}

// AnalysisStatus is the state of a face analysis event
type AnalysisStatus string

const (
	AnalysisLoading AnalysisStatus = "loading"
	AnalysisSuccess AnalysisStatus = "success"
	AnalysisError   AnalysisStatus = "error"
)

// AnalysisEvent is emitted by a face analyzer while it processes a frame.
// On success Face holds the encoded image of the detected face region.
type AnalysisEvent struct {
	Status  AnalysisStatus
	Face    []byte
	Message string
	Err     error
}

func AnalysisInProgress() AnalysisEvent {
	return AnalysisEvent{Status: AnalysisLoading}
}

func AnalysisDetected(face []byte) AnalysisEvent {
	return AnalysisEvent{Status: AnalysisSuccess, Face: face}
}

func AnalysisFailed(message string, err error) AnalysisEvent {
	return AnalysisEvent{Status: AnalysisError, Message: message, Err: err}
}
