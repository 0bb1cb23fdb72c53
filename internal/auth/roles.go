package auth

// Operator role constants.
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// WriteRoles returns roles that can trigger sweeps and retraining.
func WriteRoles() []string {
	return []string{RoleOperator, RoleAdmin}
}
