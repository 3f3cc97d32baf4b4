package domain

// UserRole distinguishes operators from administrators.
type UserRole string

const (
	RoleOperator UserRole = "OPERATOR"
	RoleAdmin    UserRole = "ADMIN"
)

// User is an operator or administrator account. SponsorUserID is an optional
// weak reference (lookup by id, never an owning pointer) to the user who
// receives the sponsor share of this operator's order profits.
type User struct {
	UserID        string   `json:"userID"`
	Name          string   `json:"name"`
	Role          UserRole `json:"role"`
	SponsorUserID *string  `json:"sponsorUserID,omitempty"`
	IsActive      bool     `json:"isActive"`
	AuditFields
}
