package dto

// PersonalizeRequest identifies the visitor a pitch is generated for.
type PersonalizeRequest struct {
	Email       string `json:"email"`
	LinkedInURL string `json:"linkedInUrl"`
}

// MessageResponse carries a single free-text pitch.
type MessageResponse struct {
	Message string `json:"message"`
}

// EnrichmentQuery is bound from the lookup endpoint's query string.
type EnrichmentQuery struct {
	Email       string `query:"email"`
	LinkedInURL string `query:"linkedInUrl"`
}
