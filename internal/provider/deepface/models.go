package deepface

// RepresentRequest is the body of POST /represent. Img is a data URI.
type RepresentRequest struct {
	Img              string `json:"img"`
	Model            string `json:"model_name"`
	Detector         string `json:"detector_backend"`
	EnforceDetection bool   `json:"enforce_detection"`
}

type RepresentResponse struct {
	Results []RepresentResult `json:"results"`
}

// RepresentResult is one detected face. FacialArea is in source pixels.
type RepresentResult struct {
	Embedding      []float64  `json:"embedding"`
	FacialArea     FacialArea `json:"facial_area"`
	FaceConfidence float64    `json:"face_confidence"`
}

type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// ErrorBody is what DeepFace sends with 4xx and 5xx answers
type ErrorBody struct {
	Error string `json:"error"`
}
