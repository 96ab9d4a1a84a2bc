package domain

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

type DemoUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	ClientID int64  `json:"clientId,omitempty"`
}

func (u DemoUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type SavedCard struct {
	HolderName string `json:"holderName"`
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
}
