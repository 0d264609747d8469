package webapi

// CheckRequest is the POST /check request body. Checks is kept loose so that
// unknown keys are ignored rather than rejected.
type CheckRequest struct {
	URL    string         `json:"url"`
	Checks map[string]any `json:"checks"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status  string   `json:"status"`
	Version string   `json:"version"`
	Checks  []string `json:"checks"`
}
