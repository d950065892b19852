package api

// Fee preview
type CalculateFeesRequest struct {
	BaseAmount float64 `json:"base_amount"`
}

// Generic booking failure body, shaped like a BookingResult.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
