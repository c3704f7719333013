package dto

import "time"

// ProfileResponseDTO is returned in API responses
type ProfileResponseDTO struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Plan           string    `json:"plan"`
	ResourcesCount int       `json:"resourcesCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ProfileUpdateDTO is used for incoming rename requests
type ProfileUpdateDTO struct {
	Name string `json:"name" validate:"required"`
}

// EntitlementResponseDTO is the caller's current access level.
type EntitlementResponseDTO struct {
	IsPremium      bool   `json:"isPremium"`
	Plan           string `json:"plan"`
	ResourcesCount int    `json:"resourcesCount"`
	CheckoutURL    string `json:"checkoutUrl"`
}

// PreferencesResponseDTO tells the client which capture modes may skip priming.
type PreferencesResponseDTO struct {
	Camera         bool       `json:"camera"`
	File           bool       `json:"file"`
	CameraPrimedAt *time.Time `json:"cameraPrimedAt,omitempty"`
	FilePrimedAt   *time.Time `json:"filePrimedAt,omitempty"`
}

// PreferencesUpdateDTO records that the priming dialog for mode was accepted.
type PreferencesUpdateDTO struct {
	Mode string `json:"mode" validate:"required,oneof=camera file"`
}
