package auth

const (
	RoleAdmin          = "admin"
	RoleDepartmentHead = "department_head"
	RoleEmployee       = "employee"
)

// Roles lists every role the portal recognises, in descending authority order.
var Roles = []string{RoleAdmin, RoleDepartmentHead, RoleEmployee}

func ValidRole(name string) bool {
	for _, role := range Roles {
		if role == name {
			return true
		}
	}
	return false
}

type UserContext struct {
	UserID     string
	Role       string
	Department string
}
