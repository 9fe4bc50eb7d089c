package pipeline

// DetectionRecord is one detection in original-image pixel coordinates with
// its resolved class label.
type DetectionRecord struct {
	Box struct {
		X1, Y1, X2, Y2 int
	} `json:"box"`
	ClassID int     `json:"class_id"`
	Label   string  `json:"label"`
	Score   float64 `json:"score"`
}

// ImageResult is the per-image detection output.
type ImageResult struct {
	Width      int               `json:"width"`
	Height     int               `json:"height"`
	Detections []DetectionRecord `json:"detections"`
	Processing struct {
		InferenceNs int64 `json:"inference_ns"`
		DecodeNs    int64 `json:"decode_ns"`
		TotalNs     int64 `json:"total_ns"`
	} `json:"processing"`
}
