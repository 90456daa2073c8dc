package authz

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

func IsAdmin(role string) bool {
	return role == RoleAdmin
}
