package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RolePublisher  = "publisher"
	RoleAdvertiser = "advertiser"
	RoleAdmin      = "admin"
)

func IsAdmin(role string) bool { return role == RoleAdmin }
