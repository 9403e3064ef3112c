package models

// These structs define the JSON payloads the gateway returns to clients.

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// UploadResponse is the success body of POST /upload-invoice.
type UploadResponse struct {
	Message             string             `json:"message"`
	ExtractedData       *ExtractedDocument `json:"extracted_data"`
	NotificationSummary string             `json:"notification_summary"`
}

// RawOutputResponse is the soft-failure body returned when the model answered
// but did not produce a JSON object. Still HTTP 200: the upstream call
// succeeded, only structuring failed.
type RawOutputResponse struct {
	Message   string `json:"message"`
	RawOutput string `json:"gemini_raw_output"`
	Error     string `json:"error"`
}

// ErrorResponse is the body of every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is an informational body with no payload, used by the
// login stub.
type MessageResponse struct {
	Message string `json:"message"`
}
