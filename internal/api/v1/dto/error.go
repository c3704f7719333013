package dto

// ErrorResponseDTO is the body of every failed request. Kind is the stable contract;
// Error is a message for people.
type ErrorResponseDTO struct {
	Error         string   `json:"error"`
	Kind          string   `json:"kind"`
	CheckoutURL   string   `json:"checkoutUrl,omitempty"`
	IsTrafficFine *bool    `json:"isTrafficFine,omitempty"`
	Allowed       []string `json:"allowed,omitempty"`
}
