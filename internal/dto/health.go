package dto

// DatabaseStatusResponse reports a successful store round trip.
type DatabaseStatusResponse struct {
	Message     string   `json:"message"`
	Collections []string `json:"collections"`
}

// HelloResponse is returned by the trivial test endpoint.
type HelloResponse struct {
	Message string `json:"message"`
}
