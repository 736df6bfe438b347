package identity

import "time"

// Role is a staff role. Roles form a strict hierarchy for transaction
// permissions: admin and chef_operation validate and cancel, caissier
// and above create, agent only reads and originates loans.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleChefOperation Role = "chef_operation"
	RoleCaissier      Role = "caissier"
	RoleAgent         Role = "agent"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleChefOperation, RoleCaissier, RoleAgent:
		return Role(s), true
	}
	return "", false
}

// CanValidate reports whether the role may validate or cancel pending
// transactions.
func (r Role) CanValidate() bool {
	return r == RoleAdmin || r == RoleChefOperation
}

// User is a staff member of the institution.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  []byte    `json:"-"`
	Role          Role      `json:"role"`
	Phone         string    `json:"phone"`
	WalletAddress string    `json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
}
