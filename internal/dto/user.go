package dto

// CreateUserRequest registers a new operator or administrator.
type CreateUserRequest struct {
	Name          string  `json:"name" binding:"required"`
	Role          string  `json:"role" binding:"required,oneof=OPERATOR ADMIN"`
	SponsorUserID *string `json:"sponsorUserID,omitempty"`
}
