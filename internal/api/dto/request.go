package dto

// SubmitScenarioRequest is the body of POST /api/v1/scenarios.
type SubmitScenarioRequest struct {
	TemplateName string         `json:"template_name" binding:"required"`
	Version      string         `json:"version"`
	Parameters   map[string]any `json:"parameters"`
}

// SubmitScenarioResponse is returned on successful scenario submission.
type SubmitScenarioResponse struct {
	ScenarioID string `json:"scenario_id"`
}
